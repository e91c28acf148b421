package db

import (
	"database/sql"
	"fmt"
	"time"
)

// File statuses
const (
	StatusRewritten = "rewritten" // output written back
	StatusUnchanged = "unchanged" // nothing to rewrite
	StatusPending   = "pending"   // would change, left unwritten (check mode)
	StatusFailed    = "failed"
)

// File is the last processing result recorded for a path
type File struct {
	ID           int64
	Path         string
	InputHash    string // SHA256 hex of the content read
	OutputHash   string // SHA256 hex of the content after rewriting
	Flags        string // config.Flags fingerprint the file was processed with
	Status       string
	ErrorMessage string
	Changes      int
	ProcessedAt  time.Time
}

const fileColumns = `id, path, input_hash, output_hash, flags, status,
		       COALESCE(error_message, ''), changes, processed_at`

// Scan reads one files row
func (f *File) Scan(rows *sql.Rows) error {
	var processedAt string
	err := rows.Scan(&f.ID, &f.Path, &f.InputHash, &f.OutputHash, &f.Flags,
		&f.Status, &f.ErrorMessage, &f.Changes, &processedAt)
	if err != nil {
		return err
	}
	f.ProcessedAt, _ = time.Parse(time.RFC3339, processedAt)
	return nil
}

// UpToDate reports whether content with hash, processed under flags, would
// come out of the processor unchanged according to this record
func (f *File) UpToDate(hash, flags string) bool {
	if f == nil || f.Flags != flags {
		return false
	}
	switch f.Status {
	case StatusRewritten, StatusUnchanged:
		return f.OutputHash == hash
	}
	return false
}

// RecordFile inserts or replaces the record for f.Path and sets f.ID
func (db *DB) RecordFile(f *File) error {
	db.logger.Trace().Str("path", f.Path).Str("status", f.Status).Str("hash", f.InputHash[:min(8, len(f.InputHash))]).Msg("Recording file")

	var errorMessage interface{}
	if f.ErrorMessage != "" {
		errorMessage = f.ErrorMessage
	}
	if f.ProcessedAt.IsZero() {
		f.ProcessedAt = time.Now().UTC()
	}

	_, err := db.conn.Exec(`
		INSERT INTO files (path, input_hash, output_hash, flags, status, error_message, changes, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			input_hash = excluded.input_hash,
			output_hash = excluded.output_hash,
			flags = excluded.flags,
			status = excluded.status,
			error_message = excluded.error_message,
			changes = excluded.changes,
			processed_at = excluded.processed_at
	`, f.Path, f.InputHash, f.OutputHash, f.Flags, f.Status, errorMessage, f.Changes, f.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to record file: %w", err)
	}

	// Always fetch the ID via SELECT since LastInsertId() is unreliable with ON CONFLICT
	if err := db.conn.QueryRow("SELECT id FROM files WHERE path = ?", f.Path).Scan(&f.ID); err != nil {
		return fmt.Errorf("failed to get file ID: %w", err)
	}
	return nil
}

// GetFile retrieves a file record by path, nil when there is none
func (db *DB) GetFile(path string) (*File, error) {
	rows, err := db.conn.Query(`SELECT `+fileColumns+` FROM files WHERE path = ?`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	defer rows.Close()

	files, err := collect[File](rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	if len(files) == 0 {
		return nil, nil // File not found
	}
	return files[0], nil
}

// DeleteFile removes the record for path
func (db *DB) DeleteFile(path string) error {
	result, err := db.conn.Exec("DELETE FROM files WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("file not found: %s", path)
	}

	return nil
}

// ListFilesOptions holds pagination and filtering options
type ListFilesOptions struct {
	Limit  int
	Offset int
	Status string // empty = any
}

// ListFiles returns a page of file records ordered by path
func (db *DB) ListFiles(opts ListFilesOptions) ([]*File, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	rows, err := db.conn.Query(`
		SELECT `+fileColumns+`
		FROM files
		WHERE ? = '' OR status = ?
		ORDER BY path
		LIMIT ? OFFSET ?
	`, opts.Status, opts.Status, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	return collect[File](rows)
}

// Stats summarises the cache
type Stats struct {
	Path          string           `json:"path"`
	SchemaVersion string           `json:"schemaVersion"`
	LastRun       string           `json:"lastRun,omitempty"`
	Total         int64            `json:"total"`
	ByStatus      map[string]int64 `json:"byStatus"`
}

// Stats returns counts of file records grouped by status
func (db *DB) Stats() (*Stats, error) {
	rows, err := db.conn.Query(`
SELECT status, COUNT(*) as count
FROM files
GROUP BY status
`)
	if err != nil {
		return nil, fmt.Errorf("failed to count files: %w", err)
	}
	defer rows.Close()

	stats := &Stats{
		Path:          db.path,
		SchemaVersion: SchemaVersion,
		ByStatus:      make(map[string]int64),
	}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	if lastRun, err := db.GetMeta(MetaKeyLastRun); err == nil {
		stats.LastRun = lastRun
	}

	return stats, nil
}

// Clear removes every file record
func (db *DB) Clear() error {
	if _, err := db.conn.Exec("DELETE FROM files"); err != nil {
		return fmt.Errorf("failed to clear files: %w", err)
	}
	return nil
}
