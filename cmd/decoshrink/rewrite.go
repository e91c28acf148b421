package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/wouteroostervld/decoshrink/pkg/config"
	"github.com/wouteroostervld/decoshrink/pkg/processor"
	"github.com/wouteroostervld/decoshrink/pkg/worker"
)

// errWouldChange makes `rewrite --check` exit non-zero without an error message
var errWouldChange = errors.New("files would change")

type rewriteOptions struct {
	write    bool
	check    bool
	jsonOut  bool
	filename string
}

func newRewriteCommand(root *rootOptions) *cobra.Command {
	opts := &rewriteOptions{}

	cmd := &cobra.Command{
		Use:   "rewrite [paths...]",
		Short: "Rewrite decorator metadata in files or directories",
		Long: `Rewrite every decorate call site in the given files and directories
(default: the current directory).

Without --write the files are left alone and the ones that would change are
listed. With --check the command also exits 1 when any file would change.
A single "-" reads stdin and writes the result to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.write && opts.check {
				return fmt.Errorf("--write and --check are mutually exclusive")
			}
			settings, err := root.loadSettings(cmd)
			if err != nil {
				return err
			}

			if len(args) == 1 && args[0] == "-" {
				return runStdin(cmd, settings, opts)
			}
			if len(args) == 0 {
				args = []string{"."}
			}
			return runRewrite(cmd, settings, opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write rewritten files in place")
	cmd.Flags().BoolVar(&opts.check, "check", false, "exit 1 when any file would change")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the summary as JSON")
	cmd.Flags().StringVar(&opts.filename, "filename", "stdin.js", "path used to resolve overrides for stdin")

	return cmd
}

func runRewrite(cmd *cobra.Command, settings *config.Settings, opts *rewriteOptions, paths []string) error {
	document, err := configDocument(settings, paths[0])
	if err != nil {
		return err
	}
	cfg := config.LoadOrDefault(document, &config.RealFileSystem{})

	mode := worker.ModeCheck
	if opts.write {
		mode = worker.ModeWrite
	}

	runner, _, cleanup, err := newRunner(settings, processor.Static(cfg), configRoot(document), mode)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := runner.Run(cmd.Context(), paths)
	if err != nil {
		return err
	}

	if err := printSummary(cmd.OutOrStdout(), summary, opts.jsonOut); err != nil {
		return err
	}

	if opts.check && len(summary.WouldChange) > 0 {
		return errWouldChange
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d files failed", summary.Failed)
	}
	return nil
}

func runStdin(cmd *cobra.Command, settings *config.Settings, opts *rewriteOptions) error {
	document, err := configDocument(settings, ".")
	if err != nil {
		return err
	}
	cfg := config.LoadOrDefault(document, &config.RealFileSystem{})

	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	p := processor.New(processor.Static(cfg), processor.WithRoot(configRoot(document)))
	result := p.Process(opts.filename, string(src))

	if _, err := io.WriteString(cmd.OutOrStdout(), result.Output); err != nil {
		return err
	}
	if opts.check && result.Changed {
		return errWouldChange
	}
	return nil
}

func printSummary(w io.Writer, summary *worker.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	for _, path := range summary.WouldChange {
		fmt.Fprintf(w, "would change: %s\n", path)
	}
	fmt.Fprintf(w, "Files:        %d\n", summary.Files)
	fmt.Fprintf(w, "Rewritten:    %d\n", summary.Rewritten)
	fmt.Fprintf(w, "Would change: %d\n", len(summary.WouldChange))
	fmt.Fprintf(w, "Unchanged:    %d (cached %d)\n", summary.Unchanged, summary.Cached)
	if summary.Failed > 0 {
		fmt.Fprintf(w, "Failed:       %d\n", summary.Failed)
	}
	fmt.Fprintf(w, "Changes:      %d\n", summary.Stats.Changes())
	return nil
}

