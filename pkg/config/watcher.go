package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher reports changes to configuration files
type ConfigWatcher interface {
	Watch(path string) error
	Unwatch(path string) error
	Events() <-chan WatchEvent
	Close() error
}

// Watch operations
const (
	OpModified = "modified"
	OpCreated  = "created"
	OpDeleted  = "deleted"
)

// WatchEvent represents a file change event
type WatchEvent struct {
	Path      string
	Operation string
}

// FsnotifyWatcher implements ConfigWatcher using fsnotify. It watches the
// parent directory of each file so that editors replacing the file on save
// are still seen.
type FsnotifyWatcher struct {
	watcher *fsnotify.Watcher
	events  chan WatchEvent
	done    chan struct{}
	mu      sync.Mutex
	files   map[string]bool // watched files
	dirs    map[string]int  // watched directories -> number of files in them
}

// NewFsnotifyWatcher creates a new fsnotify-based config watcher
func NewFsnotifyWatcher() (*FsnotifyWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &FsnotifyWatcher{
		watcher: watcher,
		events:  make(chan WatchEvent, 10),
		done:    make(chan struct{}),
		files:   make(map[string]bool),
		dirs:    make(map[string]int),
	}

	go w.processEvents()

	return w, nil
}

// Watch starts watching a configuration file
func (w *FsnotifyWatcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	if w.files[absPath] {
		return nil
	}

	dir := filepath.Dir(absPath)
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.dirs[dir]++
	w.files[absPath] = true
	return nil
}

// Unwatch stops watching a configuration file
func (w *FsnotifyWatcher) Unwatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	if !w.files[absPath] {
		return nil
	}
	delete(w.files, absPath)

	dir := filepath.Dir(absPath)
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return nil
	}

	delete(w.dirs, dir)
	if err := w.watcher.Remove(dir); err != nil {
		return fmt.Errorf("failed to unwatch %s: %w", dir, err)
	}
	return nil
}

// Events returns the channel for receiving watch events
func (w *FsnotifyWatcher) Events() <-chan WatchEvent {
	return w.events
}

// Close stops the watcher and cleans up resources
func (w *FsnotifyWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *FsnotifyWatcher) isWatched(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.files[path]
}

// processEvents translates fsnotify events for watched files to WatchEvents
func (w *FsnotifyWatcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !w.isWatched(filepath.Clean(event.Name)) {
				continue
			}

			var op string
			switch {
			case event.Op&fsnotify.Write == fsnotify.Write:
				op = OpModified
			case event.Op&fsnotify.Create == fsnotify.Create:
				op = OpCreated
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				op = OpDeleted
			default:
				continue
			}

			select {
			case w.events <- WatchEvent{Path: event.Name, Operation: op}:
			case <-w.done:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger().Warn().Err(err).Msg("Config watcher error")

		case <-w.done:
			return
		}
	}
}

// Reloader keeps the active PluginConfig in sync with its document on disk.
// Readers always see a complete configuration; a broken edit falls back to
// the defaults like any other malformed document.
type Reloader struct {
	path     string
	fs       FileSystem
	watcher  ConfigWatcher
	current  atomic.Pointer[PluginConfig]
	done     chan struct{}
	mu       sync.Mutex
	onReload func(cfg *PluginConfig)
}

// NewReloader loads the document at path and starts watching it
func NewReloader(path string, fs FileSystem, watcher ConfigWatcher) (*Reloader, error) {
	r := &Reloader{
		path:    path,
		fs:      fs,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	r.current.Store(LoadOrDefault(path, fs))

	if err := watcher.Watch(path); err != nil {
		return nil, fmt.Errorf("failed to watch config: %w", err)
	}

	go r.handleEvents()

	return r, nil
}

// Current returns the active configuration
func (r *Reloader) Current() *PluginConfig {
	return r.current.Load()
}

// OnReload registers a callback invoked after every reload
func (r *Reloader) OnReload(callback func(cfg *PluginConfig)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.onReload = callback
}

// Close stops watching and cleans up resources
func (r *Reloader) Close() error {
	close(r.done)
	return r.watcher.Close()
}

func (r *Reloader) handleEvents() {
	for {
		select {
		case event, ok := <-r.watcher.Events():
			if !ok {
				return
			}

			var next *PluginConfig
			switch event.Operation {
			case OpModified, OpCreated:
				next = LoadOrDefault(r.path, r.fs)
			case OpDeleted:
				next = DefaultPluginConfig()
			default:
				continue
			}

			r.current.Store(next)
			logger().Info().Str("path", r.path).Str("op", event.Operation).Int("overrides", len(next.Overrides)).Msg("Configuration reloaded")

			r.mu.Lock()
			callback := r.onReload
			r.mu.Unlock()
			if callback != nil {
				callback(next)
			}

		case <-r.done:
			return
		}
	}
}
