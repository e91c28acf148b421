package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wouteroostervld/decoshrink/pkg/config"
	"github.com/wouteroostervld/decoshrink/pkg/processor"
	"github.com/wouteroostervld/decoshrink/pkg/watcher"
	"github.com/wouteroostervld/decoshrink/pkg/worker"
)

func newWatchCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dirs...]",
		Short: "Rewrite files in place as they change",
		Long: `Rewrite everything under the given directories (default: the current
directory) once, then keep rewriting files as they are written or created.
Edits to the configuration document are picked up and trigger a full pass.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := root.loadSettings(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"."}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, settings, args)
		},
	}
}

func runWatch(ctx context.Context, settings *config.Settings, dirs []string) error {
	document, err := configDocument(settings, dirs[0])
	if err != nil {
		return err
	}

	var configs processor.ConfigSource
	var reloader *config.Reloader
	if document != "" {
		cw, err := config.NewFsnotifyWatcher()
		if err != nil {
			return err
		}
		reloader, err = config.NewReloader(document, &config.RealFileSystem{}, cw)
		if err != nil {
			cw.Close()
			return err
		}
		defer reloader.Close()
		configs = reloader
	} else {
		configs = processor.Static(config.DefaultPluginConfig())
	}

	runner, f, cleanup, err := newRunner(settings, configs, configRoot(document), worker.ModeWrite)
	if err != nil {
		return err
	}
	defer cleanup()

	// reloads arrive on the reloader goroutine; one pass at a time
	var passMu sync.Mutex
	fullPass := func() {
		passMu.Lock()
		defer passMu.Unlock()

		summary, err := runner.Run(ctx, dirs)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Rewrite pass failed")
			}
			return
		}
		log.Info().
			Int("files", summary.Files).
			Int("rewritten", summary.Rewritten).
			Int("cached", summary.Cached).
			Int("failed", summary.Failed).
			Msg("Rewrite pass complete")
	}
	fullPass()

	w, err := watcher.New(&watcher.Config{
		DebounceDelay: settings.Debounce,
		ShouldDescend: f.ShouldDescend,
		OnChange: func(path string) {
			if !f.ShouldProcess(path) {
				return
			}
			result := runner.ProcessFile(path)
			if result.Err != nil {
				log.Warn().Err(result.Err).Str("path", path).Msg("Rewrite failed")
				return
			}
			if result.Changes > 0 {
				log.Info().Str("path", path).Int("changes", result.Changes).Msg("Rewrote file")
			}
		},
	})
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			dir = filepath.Dir(dir)
		}
		if err := w.WatchTree(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	if reloader != nil {
		reloader.OnReload(func(*config.PluginConfig) { fullPass() })
	}

	log.Info().Strs("dirs", dirs).Msg("Watching for changes")
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
