package config

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"
)

// MockFileSystem is an in-memory FileSystem for tests. Paths are always
// slash-separated; relative paths are resolved against WorkDir.
type MockFileSystem struct {
	Files   map[string][]byte // path -> content
	HomeDir string
	WorkDir string
}

// NewMockFileSystem creates a new mock filesystem
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		Files:   make(map[string][]byte),
		HomeDir: "/home/testuser",
		WorkDir: "/work",
	}
}

func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	data, ok := m.Files[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, os.ErrNotExist)
	}
	return data, nil
}

func (m *MockFileSystem) Stat(name string) (fs.FileInfo, error) {
	data, ok := m.Files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return &mockFileInfo{name: path.Base(name), size: int64(len(data))}, nil
}

func (m *MockFileSystem) Abs(name string) (string, error) {
	if path.IsAbs(name) {
		return path.Clean(name), nil
	}
	return path.Join(m.WorkDir, name), nil
}

func (m *MockFileSystem) UserHomeDir() (string, error) {
	return m.HomeDir, nil
}

// AddFile adds a file to the mock filesystem
func (m *MockFileSystem) AddFile(name string, content []byte) {
	m.Files[name] = content
}

type mockFileInfo struct {
	name string
	size int64
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return 0644 }
func (m *mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m *mockFileInfo) IsDir() bool        { return false }
func (m *mockFileInfo) Sys() interface{}   { return nil }
