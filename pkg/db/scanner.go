package db

import (
	"database/sql"
	"fmt"
)

// record is a row type that reads its own columns
type record interface {
	Scan(rows *sql.Rows) error
}

// collect drains rows into records of type T
func collect[T any, R interface {
	*T
	record
}](rows *sql.Rows) ([]*T, error) {
	var out []*T
	for rows.Next() {
		rec := R(new(T))
		if err := rec.Scan(rows); err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		out = append(out, (*T)(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return out, nil
}
