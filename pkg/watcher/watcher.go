// Package watcher reports debounced file changes below watched directories.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/wouteroostervld/decoshrink/pkg/logging"
)

// FileWatcher watches directory trees for file changes
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	onChange func(path string)
	descend  func(dir string) bool
	mu       sync.Mutex
	watched  map[string]bool
	debounce time.Duration
	pending  map[string]*time.Timer
	logger   zerolog.Logger
}

// Config holds watcher configuration
type Config struct {
	DebounceDelay time.Duration // Delay before triggering onChange (default: 1s)
	OnChange      func(path string)
	// ShouldDescend decides whether a subdirectory is watched (default: all)
	ShouldDescend func(dir string) bool
}

// New creates a new file watcher
func New(cfg *Config) (*FileWatcher, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = time.Second
	}
	if cfg.ShouldDescend == nil {
		cfg.ShouldDescend = func(string) bool { return true }
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  watcher,
		onChange: cfg.OnChange,
		descend:  cfg.ShouldDescend,
		watched:  make(map[string]bool),
		debounce: cfg.DebounceDelay,
		pending:  make(map[string]*time.Timer),
		logger:   logging.GetLogger("watcher"),
	}, nil
}

// Watch adds a directory to the watch list
func (w *FileWatcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.watchLocked(path)
}

func (w *FileWatcher) watchLocked(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if w.watched[abs] {
		return nil // Already watching
	}

	if err := w.watcher.Add(abs); err != nil {
		return fmt.Errorf("failed to watch %s: %w", abs, err)
	}

	w.watched[abs] = true
	w.logger.Debug().Str("dir", abs).Msg("Watching directory")
	return nil
}

// WatchTree watches root and every subdirectory the ShouldDescend hook
// accepts. Directories created later are added as they appear.
func (w *FileWatcher) WatchTree(root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && !w.descend(path) {
			return filepath.SkipDir
		}
		return w.watchLocked(path)
	})
}

// Unwatch removes a directory from the watch list
func (w *FileWatcher) Unwatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if !w.watched[abs] {
		return nil // Not watching
	}

	if err := w.watcher.Remove(abs); err != nil {
		return fmt.Errorf("failed to unwatch %s: %w", abs, err)
	}

	delete(w.watched, abs)
	return nil
}

// Start begins watching for file changes
func (w *FileWatcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			// Only care about write and create events
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if event.Op&fsnotify.Create != 0 && w.handleNewDir(event.Name) {
				continue
			}

			w.handleEvent(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			// Log error but continue watching
			w.logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}

// handleNewDir starts watching a freshly created directory and reports
// whether path was one
func (w *FileWatcher) handleNewDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	if w.descend(path) {
		if err := w.WatchTree(path); err != nil {
			w.logger.Warn().Err(err).Str("dir", path).Msg("Failed to watch new directory")
		}
	}
	return true
}

// handleEvent debounces file change events
func (w *FileWatcher) handleEvent(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Cancel existing timer if any
	if timer, exists := w.pending[path]; exists {
		timer.Stop()
	}

	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if w.onChange != nil {
			w.onChange(path)
		}
	})
}

// Close stops the watcher and releases resources
func (w *FileWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Cancel all pending timers
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = make(map[string]*time.Timer)

	return w.watcher.Close()
}

// Watched returns the list of watched directories
func (w *FileWatcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.watched))
	for path := range w.watched {
		paths = append(paths, path)
	}
	return paths
}
