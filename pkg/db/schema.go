package db

// Schema version for migration tracking. A cache written under another
// version is dropped and rebuilt.
const SchemaVersion = "1.0.0"

// DDL statements for database initialization
const (
	// Meta table stores configuration and version info
	CreateMetaTable = `
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	// Files table records the last processing result per file
	CreateFilesTable = `
CREATE TABLE IF NOT EXISTS files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT UNIQUE NOT NULL,
    input_hash TEXT NOT NULL,
    output_hash TEXT NOT NULL,
    flags TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'unchanged',
    error_message TEXT,
    changes INTEGER DEFAULT 0,
    processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

	// Index for fast path lookups
	CreateFilesPathIndex = `
CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);`

	// Index for status summaries
	CreateFilesStatusIndex = `
CREATE INDEX IF NOT EXISTS idx_files_status ON files(status);`

	DropFilesTable = `DROP TABLE IF EXISTS files;`

	// Enable WAL mode for concurrent reads/writes
	EnableWALMode = `PRAGMA journal_mode=WAL;`

	// Set reasonable WAL checkpoint parameters
	SetWALCheckpoint = `PRAGMA wal_autocheckpoint=1000;`
)

// MetaKeys are standard keys stored in the meta table
const (
	MetaKeySchemaVersion = "schema_version"
	MetaKeyCreatedAt     = "created_at"
	MetaKeyLastRun       = "last_run"
)
