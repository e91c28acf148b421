package db

// Cache is the interface the runner records results through.
// This enables dependency injection and mocking for testing.
type Cache interface {
	// Lifecycle
	Close() error
	Path() string
	SetMeta(key, value string) error

	// File records
	GetFile(path string) (*File, error)
	RecordFile(f *File) error
	DeleteFile(path string) error
	ListFiles(opts ListFilesOptions) ([]*File, error)

	// Summaries
	Stats() (*Stats, error)
	Clear() error
}

// Ensure DB implements Cache interface
var _ Cache = (*DB)(nil)
