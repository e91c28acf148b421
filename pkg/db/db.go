// Package db is the incremental cache: a SQLite record of the last result
// for every processed file, so unchanged files are not rewritten again.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/wouteroostervld/decoshrink/pkg/logging"
)

// ErrMetaNotFound is returned by GetMeta for an unknown key
var ErrMetaNotFound = errors.New("meta key not found")

// DB wraps the SQLite database connection with our schema
type DB struct {
	conn   *sql.DB
	path   string
	logger zerolog.Logger
}

// Config holds database configuration
type Config struct {
	Path string // Database file path
}

// Open opens or creates a database with the given configuration
func Open(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	// Ensure parent directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbExists := false
	if _, err := os.Stat(cfg.Path); err == nil {
		dbExists = true
	}

	// _journal_mode=WAL will be set via PRAGMA after opening
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", cfg.Path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool (single writer, multiple readers)
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{
		conn:   conn,
		path:   cfg.Path,
		logger: logging.GetLogger("db"),
	}

	if err := db.initSchema(dbExists); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Set file permissions to 0600 (user read/write only)
	if err := os.Chmod(cfg.Path, 0600); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set database permissions: %w", err)
	}

	return db, nil
}

// initSchema creates tables and indexes if they don't exist
func (db *DB) initSchema(dbExists bool) error {
	if _, err := db.conn.Exec(EnableWALMode); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.conn.Exec(SetWALCheckpoint); err != nil {
		return fmt.Errorf("failed to set WAL checkpoint: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(CreateMetaTable); err != nil {
		return fmt.Errorf("failed to create meta table: %w", err)
	}

	fresh := !dbExists
	if dbExists {
		var version string
		err := tx.QueryRow("SELECT value FROM meta WHERE key = ?", MetaKeySchemaVersion).Scan(&version)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		if version != SchemaVersion {
			db.logger.Info().Str("from", version).Str("to", SchemaVersion).Msg("Rebuilding cache for new schema")
			if _, err := tx.Exec(DropFilesTable); err != nil {
				return fmt.Errorf("failed to drop files table: %w", err)
			}
			fresh = true
		}
	}

	for _, schema := range []string{CreateFilesTable, CreateFilesPathIndex, CreateFilesStatusIndex} {
		if _, err := tx.Exec(schema); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}

	if fresh {
		now := time.Now().UTC().Format(time.RFC3339)
		metaInserts := map[string]string{
			MetaKeySchemaVersion: SchemaVersion,
			MetaKeyCreatedAt:     now,
		}
		for key, value := range metaInserts {
			_, err := tx.Exec("INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value", key, value)
			if err != nil {
				return fmt.Errorf("failed to insert meta %s: %w", key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}

	return nil
}

// Close closes the database connection and flushes WAL
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	// Checkpoint WAL before closing
	_, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	closeErr := db.conn.Close()

	if err != nil {
		db.logger.Warn().Err(err).Msg("Failed to checkpoint WAL")
	}

	// Mark conn as nil to prevent double-close
	db.conn = nil

	return closeErr
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// GetMeta retrieves a metadata value by key
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", ErrMetaNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta: %w", err)
	}
	return value, nil
}

// SetMeta stores a metadata key-value pair
func (db *DB) SetMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set meta: %w", err)
	}
	return nil
}

// HealthCheck verifies database connectivity and schema
func (db *DB) HealthCheck() error {
	if err := db.conn.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	version, err := db.GetMeta(MetaKeySchemaVersion)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("schema version mismatch: expected %s, got %s", SchemaVersion, version)
	}

	var journalMode string
	if err := db.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to check journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("WAL mode not enabled, got: %s", journalMode)
	}

	return nil
}
