// Package processor applies the rewriter to whole files.
//
// A file is never parsed as a whole. The processor finds the decorate call
// sites, parses each one as an expression, rewrites all of them in a single
// traversal and splices the printed sites back into the untouched text.
package processor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wouteroostervld/decoshrink/pkg/config"
	"github.com/wouteroostervld/decoshrink/pkg/js/ast"
	"github.com/wouteroostervld/decoshrink/pkg/js/parser"
	"github.com/wouteroostervld/decoshrink/pkg/js/printer"
	"github.com/wouteroostervld/decoshrink/pkg/logging"
	"github.com/wouteroostervld/decoshrink/pkg/rewrite"
)

var (
	// ErrNotDecorateCall is reported for a site that calls the decorate
	// helper without an array literal of decorators
	ErrNotDecorateCall = errors.New("not a decorate call")

	// ErrSiteComment is reported for a site with comments inside it. The
	// printer rebuilds list separators, which would drop them.
	ErrSiteComment = errors.New("site contains comments")
)

// ConfigSource supplies the configuration in effect. config.Reloader
// implements it for watch mode.
type ConfigSource interface {
	Current() *config.PluginConfig
}

type staticSource struct {
	cfg *config.PluginConfig
}

func (s staticSource) Current() *config.PluginConfig {
	return s.cfg
}

// Static returns a ConfigSource that always yields cfg
func Static(cfg *config.PluginConfig) ConfigSource {
	return staticSource{cfg: cfg}
}

// Result is the outcome of processing one file
type Result struct {
	Output  string
	Changed bool
	Stats   rewrite.Stats
	Sites   int // sites parsed and rewritten
	Skipped int // sites left alone
}

// Processor rewrites the decorate call sites of source files
type Processor struct {
	configs ConfigSource
	root    string
	logger  zerolog.Logger
}

// Option configures a Processor
type Option func(*Processor)

// WithRoot makes absolute paths below dir match override globs relative to
// dir, typically the directory holding the configuration document
func WithRoot(dir string) Option {
	return func(p *Processor) {
		p.root = filepath.Clean(dir)
	}
}

// New creates a Processor reading its configuration from configs
func New(configs ConfigSource, opts ...Option) *Processor {
	p := &Processor{
		configs: configs,
		logger:  logging.GetLogger("processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Flags resolves the flags in effect for path
func (p *Processor) Flags(path string) config.Flags {
	return p.configs.Current().ResolveFlags(p.matchPath(path))
}

// matchPath is path as seen by override globs
func (p *Processor) matchPath(path string) string {
	if p.root == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(p.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// Process resolves the flags for path once and rewrites src with them
func (p *Processor) Process(path, src string) Result {
	return p.ProcessWith(p.Flags(path), path, src)
}

// ProcessWith rewrites src with an already resolved flag set. path is only
// used for logging.
func (p *Processor) ProcessWith(flags config.Flags, path, src string) Result {
	result := Result{Output: src}
	if !flags.Any() {
		return result
	}

	offsets, err := FindSites(src)
	if err != nil {
		p.logger.Warn().Err(err).Str("path", path).Int("sites", len(offsets)).Msg("Stopped scanning for sites")
	}

	var (
		calls []ast.Node
		end   int
	)
	for _, offset := range offsets {
		// nested sites are rewritten as part of the enclosing one
		if offset < end {
			continue
		}

		call, err := parseSite(src, offset)
		if err != nil {
			result.Skipped++
			p.logger.Debug().Err(err).Str("path", path).Int("offset", offset).Msg("Skipping site")
			continue
		}
		calls = append(calls, call)
		end = call.Position().Src.End
	}
	result.Sites = len(calls)

	result.Stats = rewrite.New(flags).Rewrite(ast.NewProgram(calls...))
	if result.Stats.Changes() == 0 {
		return result
	}

	result.Output = splice(src, calls)
	result.Changed = result.Output != src

	p.logger.Debug().
		Str("path", path).
		Int("sites", result.Sites).
		Int("skipped", result.Skipped).
		Int("changes", result.Stats.Changes()).
		Msg("Processed file")

	return result
}

// parseSite parses the decorate call at offset
func parseSite(src string, offset int) (*ast.Call, error) {
	call, sawComment, err := parser.ParseCallAt(src, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to parse site: %w", err)
	}
	if sawComment {
		return nil, ErrSiteComment
	}
	if _, ok := rewrite.IsDecorateCall(call); !ok {
		return nil, ErrNotDecorateCall
	}
	if _, ok := rewrite.DecoratorArray(call); !ok {
		return nil, ErrNotDecorateCall
	}
	return call, nil
}

// splice replaces the text of every call with its printed form
func splice(src string, calls []ast.Node) string {
	pr := printer.New(src)

	var b strings.Builder
	b.Grow(len(src))

	at := 0
	for _, call := range calls {
		span := call.Position().Src
		b.WriteString(src[at:span.Start])
		b.WriteString(pr.Print(call))
		at = span.End
	}
	b.WriteString(src[at:])

	return b.String()
}
