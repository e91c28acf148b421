package main

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/wouteroostervld/decoshrink/pkg/config"
	"github.com/wouteroostervld/decoshrink/pkg/processor"
)

// resolveOutput is what `resolve` prints
type resolveOutput struct {
	Path   string       `json:"path"`
	Config string       `json:"config,omitempty"`
	Flags  config.Flags `json:"flags"`
}

func newResolveCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Print the effective rewrite flags for a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := root.loadSettings(cmd)
			if err != nil {
				return err
			}

			document, err := configDocument(settings, args[0])
			if err != nil {
				return err
			}
			cfg := config.LoadOrDefault(document, &config.RealFileSystem{})
			p := processor.New(processor.Static(cfg), processor.WithRoot(configRoot(document)))

			out := resolveOutput{
				Path:   args[0],
				Config: document,
				Flags:  p.Flags(absPath(args[0])),
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
