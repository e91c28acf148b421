package main

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/wouteroostervld/decoshrink/pkg/db"
)

func newCacheCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the incremental cache",
	}

	var jsonOut bool
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cached file counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCacheCommand(root, cmd)
			if err != nil {
				return err
			}
			defer cache.Close()

			stats, err := cache.Stats()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			fmt.Fprintln(w, "decoshrink cache")
			fmt.Fprintln(w, "================")
			fmt.Fprintf(w, "Database:  %s\n", stats.Path)
			fmt.Fprintf(w, "Schema:    %s\n", stats.SchemaVersion)
			if stats.LastRun != "" {
				fmt.Fprintf(w, "Last run:  %s\n", stats.LastRun)
			}
			fmt.Fprintf(w, "Files:     %d\n", stats.Total)

			statuses := make([]string, 0, len(stats.ByStatus))
			for status := range stats.ByStatus {
				statuses = append(statuses, status)
			}
			sort.Strings(statuses)
			for _, status := range statuses {
				fmt.Fprintf(w, "  %-10s %d\n", status+":", stats.ByStatus[status])
			}
			return nil
		},
	}
	statsCmd.Flags().BoolVar(&jsonOut, "json", false, "print as JSON")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every cached result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCacheCommand(root, cmd)
			if err != nil {
				return err
			}
			defer cache.Close()

			if err := cache.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", cache.Path())
			return nil
		},
	}

	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}

func openCacheCommand(root *rootOptions, cmd *cobra.Command) (*db.DB, error) {
	settings, err := root.loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	if settings.CacheDB == "" {
		return nil, fmt.Errorf("no cache database configured")
	}
	return db.Open(db.Config{Path: settings.CacheDB})
}
