package config

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem abstracts filesystem operations for testing
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
	Abs(path string) (string, error)
	UserHomeDir() (string, error)
}

// RealFileSystem implements FileSystem using actual OS calls
type RealFileSystem struct{}

func (r *RealFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (r *RealFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (r *RealFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

func (r *RealFileSystem) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

// Loader reads plugin configuration documents through a FileSystem
type Loader struct {
	fs FileSystem
}

// NewLoader creates a new Loader with the given filesystem
func NewLoader(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// NewDefaultLoader creates a Loader with real filesystem operations
func NewDefaultLoader() *Loader {
	return &Loader{fs: &RealFileSystem{}}
}

// Load reads and decodes the document at path
func (l *Loader) Load(path string) (*PluginConfig, error) {
	return LoadFromPath(path, l.fs)
}

// LoadOrDefault is Load, falling back to the defaults on any error
func (l *Loader) LoadOrDefault(path string) *PluginConfig {
	return LoadOrDefault(path, l.fs)
}

// Find walks up from startDir to the nearest configuration document
func (l *Loader) Find(startDir string) (string, error) {
	return FindConfigWithFS(startDir, l.fs)
}
