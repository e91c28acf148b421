package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wouteroostervld/decoshrink/pkg/config"
	"github.com/wouteroostervld/decoshrink/pkg/db"
	"github.com/wouteroostervld/decoshrink/pkg/filter"
	"github.com/wouteroostervld/decoshrink/pkg/logging"
	"github.com/wouteroostervld/decoshrink/pkg/processor"
	"github.com/wouteroostervld/decoshrink/pkg/worker"
)

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	settingsPath string
	configPath   string
	logLevel     string
	workers      int
	noCache      bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "decoshrink",
		Short: "Shrink compiled decorator metadata",
		Long: `decoshrink rewrites the _ts_decorate / _ts_metadata / _ts_param helper calls
emitted by decorator transpilation. It unwraps type thunks such as
{ type: () => String }, collapses typeof guards in reflection metadata and can
strip metadata entirely. Everything else in a file is left byte for byte.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.settingsPath, "settings", "", "host settings file (default ~/.decoshrink/settings.yaml)")
	flags.StringVarP(&opts.configPath, "config", "c", "", "rewrite configuration document (default: nearest .decoshrinkrc.*)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.IntVarP(&opts.workers, "workers", "j", 0, "files processed concurrently")
	flags.BoolVar(&opts.noCache, "no-cache", false, "disable the incremental cache")

	rootCmd.AddCommand(
		newRewriteCommand(opts),
		newResolveCommand(opts),
		newWatchCommand(opts),
		newCacheCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}

// loadSettings layers the command line over the settings file and
// environment, then sets up logging
func (o *rootOptions) loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	path := o.settingsPath
	if path == "" {
		path = config.DefaultSettingsPath()
	}

	settings, err := config.LoadSettings(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("config") {
		settings.ConfigFile = o.configPath
	}
	if flags.Changed("log-level") {
		settings.LogLevel = o.logLevel
	}
	if flags.Changed("workers") && o.workers > 0 {
		settings.Workers = o.workers
	}
	if flags.Changed("no-cache") {
		settings.NoCache = o.noCache
	}

	logging.Setup(settings.LogLevel, os.Stderr)
	log.Debug().Str("command", cmd.Name()).Str("settings", path).Msg("Command started")

	return settings, nil
}

// configDocument returns the rewrite configuration document to use: the
// configured one, or the nearest one above start. Empty when there is none.
func configDocument(settings *config.Settings, start string) (string, error) {
	if settings.ConfigFile != "" {
		path, err := config.ExpandHome(settings.ConfigFile)
		if err != nil {
			return "", err
		}
		return filepath.Abs(path)
	}

	if info, err := os.Stat(start); err == nil && !info.IsDir() {
		start = filepath.Dir(start)
	}
	return config.NewDefaultLoader().Find(start)
}

// configRoot is the directory override globs are relative to
func configRoot(document string) string {
	if document != "" {
		return filepath.Dir(document)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return ""
}

func newFilter(settings *config.Settings) (*filter.Filter, error) {
	return filter.New(filter.Config{
		Extensions: settings.Extensions,
		Exclude:    settings.Exclude,
		Blacklist:  settings.Blacklist,
		Whitelist:  settings.Whitelist,
	})
}

// openCache opens the incremental cache unless it is disabled
func openCache(settings *config.Settings) (*db.DB, error) {
	if settings.NoCache || settings.CacheDB == "" {
		return nil, nil
	}
	cache, err := db.Open(db.Config{Path: settings.CacheDB})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return cache, nil
}

// newRunner wires filter, processor and cache. The returned cleanup closes
// the cache.
func newRunner(settings *config.Settings, configs processor.ConfigSource, root string, mode worker.Mode) (*worker.Runner, *filter.Filter, func(), error) {
	f, err := newFilter(settings)
	if err != nil {
		return nil, nil, nil, err
	}

	cache, err := openCache(settings)
	if err != nil {
		return nil, nil, nil, err
	}

	cfg := &worker.Config{
		Processor: processor.New(configs, processor.WithRoot(root)),
		Filter:    f,
		Workers:   settings.Workers,
		Mode:      mode,
	}
	cleanup := func() {}
	if cache != nil {
		cfg.Cache = cache
		cleanup = func() { cache.Close() }
	}

	return worker.NewRunner(cfg), f, cleanup, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "decoshrink version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
		},
	}
}

// absPath falls back to path itself when it cannot be made absolute
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
