package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	w, err := New(nil)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, time.Second, w.debounce)
}

func TestWatch(t *testing.T) {
	tempDir := t.TempDir()

	w, err := New(nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(tempDir))
	assert.Len(t, w.Watched(), 1)

	// Watch same dir again - should be idempotent
	require.NoError(t, w.Watch(tempDir))
	assert.Len(t, w.Watched(), 1, "watching same dir twice should not duplicate")
}

func TestWatchTree(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"dist/models", "dist/resolvers", "node_modules/lib"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	}

	w, err := New(&Config{
		ShouldDescend: func(dir string) bool { return filepath.Base(dir) != "node_modules" },
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.WatchTree(root))
	assert.Len(t, w.Watched(), 4) // root, dist, dist/models, dist/resolvers
}

func TestUnwatch(t *testing.T) {
	tempDir := t.TempDir()

	w, err := New(nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(tempDir))
	require.NoError(t, w.Unwatch(tempDir))
	assert.Empty(t, w.Watched())

	// unwatching an unknown directory is a no-op
	assert.NoError(t, w.Unwatch(tempDir))
}

func TestFileChangeDetection(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "app.js")

	changes := make(chan string, 10)
	w, err := New(&Config{
		DebounceDelay: 50 * time.Millisecond,
		OnChange: func(path string) {
			changes <- path
		},
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(tempDir))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go w.Start(ctx)

	require.NoError(t, os.WriteFile(testFile, []byte("initial"), 0600))

	select {
	case path := <-changes:
		assert.Equal(t, testFile, path)
	case <-time.After(500 * time.Millisecond):
		t.Error("timeout waiting for file change event")
	}
}

func TestDebounce(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "app.js")

	changes := make(chan string, 10)
	w, err := New(&Config{
		DebounceDelay: 100 * time.Millisecond,
		OnChange: func(path string) {
			changes <- path
		},
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(tempDir))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go w.Start(ctx)

	// Write multiple times rapidly
	for i := 0; i < 5; i++ {
		os.WriteFile(testFile, []byte(string(rune('a'+i))), 0600)
		time.Sleep(20 * time.Millisecond)
	}

	// Should only get ONE debounced event
	eventCount := 0
	timeout := time.After(300 * time.Millisecond)

loop:
	for {
		select {
		case <-changes:
			eventCount++
		case <-timeout:
			break loop
		}
	}

	assert.Equal(t, 1, eventCount, "expected 1 debounced event")
}

func TestNewDirectoryIsWatched(t *testing.T) {
	root := t.TempDir()

	changes := make(chan string, 10)
	w, err := New(&Config{
		DebounceDelay: 50 * time.Millisecond,
		OnChange: func(path string) {
			changes <- path
		},
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.WatchTree(root))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	go w.Start(ctx)

	sub := filepath.Join(root, "dist")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.Eventually(t, func() bool { return len(w.Watched()) == 2 }, time.Second, 10*time.Millisecond)

	testFile := filepath.Join(sub, "app.js")
	require.NoError(t, os.WriteFile(testFile, []byte("x"), 0600))

	select {
	case path := <-changes:
		assert.Equal(t, testFile, path)
	case <-time.After(time.Second):
		t.Error("timeout waiting for change in new directory")
	}
}
