// Package rewrite shrinks compiler-emitted decorator applications.
//
// For every `_ts_decorate([...], ...)` call the Rewriter applies, in order and
// as enabled by its flags: metadata stripping, decorator-argument arrow
// unwrapping, `type:` property arrow unwrapping, and typeof-guard collapsing
// in design:paramtypes and design:type metadata. Every rewrite replaces a
// subtree with a smaller one, only ever introduces the identifier Object and
// is a no-op on its own output.
package rewrite

import (
	"github.com/rs/zerolog"

	"github.com/wouteroostervld/decoshrink/pkg/config"
	"github.com/wouteroostervld/decoshrink/pkg/js/ast"
	"github.com/wouteroostervld/decoshrink/pkg/logging"
)

// Stats counts what one traversal did
type Stats struct {
	DecorateCalls    int `json:"decorateCalls"`
	ConstructorCalls int `json:"constructorCalls"`
	MetadataStripped int `json:"metadataStripped"`
	DecoratorArrows  int `json:"decoratorArrows"`
	TypeArrows       int `json:"typeArrows"`
	ParamTypeGuards  int `json:"paramTypeGuards"`
	DesignTypeGuards int `json:"designTypeGuards"`
}

// Changes is the number of individual rewrites applied
func (s Stats) Changes() int {
	return s.MetadataStripped + s.DecoratorArrows + s.TypeArrows + s.ParamTypeGuards + s.DesignTypeGuards
}

// Add accumulates o into s
func (s *Stats) Add(o Stats) {
	s.DecorateCalls += o.DecorateCalls
	s.ConstructorCalls += o.ConstructorCalls
	s.MetadataStripped += o.MetadataStripped
	s.DecoratorArrows += o.DecoratorArrows
	s.TypeArrows += o.TypeArrows
	s.ParamTypeGuards += o.ParamTypeGuards
	s.DesignTypeGuards += o.DesignTypeGuards
}

// Rewriter applies the enabled passes. The flags are fixed for its lifetime.
type Rewriter struct {
	flags  config.Flags
	logger zerolog.Logger
}

// New creates a Rewriter for one resolved flag set
func New(flags config.Flags) *Rewriter {
	return &Rewriter{
		flags:  flags,
		logger: logging.GetLogger("rewrite"),
	}
}

// Flags returns the flag set the rewriter was built with
func (r *Rewriter) Flags() config.Flags {
	return r.flags
}

// Rewrite walks root depth-first and rewrites every decorate call in place.
// Each call is inspected before its children, so nested calls are seen in
// their rewritten form.
func (r *Rewriter) Rewrite(root ast.Node) Stats {
	var stats Stats
	if !r.flags.Any() {
		return stats
	}

	ast.Inspect(root, func(n ast.Node) bool {
		if call, ok := IsDecorateCall(n); ok {
			stats.Add(r.RewriteCall(call))
		}
		return true
	})

	return stats
}

// RewriteCall applies the passes to a single decorate call. Calls whose
// first argument is not an array literal are left alone.
func (r *Rewriter) RewriteCall(call *ast.Call) Stats {
	var stats Stats

	arr, ok := DecoratorArray(call)
	if !ok {
		return stats
	}

	stats.DecorateCalls = 1
	if Classify(call) == TargetConstructor {
		stats.ConstructorCalls = 1
	}

	if r.flags.StripMetadata {
		stats.MetadataStripped = stripMetadata(arr)
	}
	if r.flags.UnwrapDecoratorArrows {
		stats.DecoratorArrows = unwrapDecoratorArrows(arr)
	}
	if r.flags.UnwrapTypeArrows {
		stats.TypeArrows = unwrapTypeArrows(arr)
	}
	if r.flags.SimplifyMetadataTypeofs {
		stats.ParamTypeGuards = simplifyGuards(arr, KeyParamTypes)
	}
	if r.flags.SimplifyDesignTypeTypeofs {
		stats.DesignTypeGuards = simplifyGuards(arr, KeyType)
	}

	r.logger.Trace().
		Str("target", Classify(call).String()).
		Int("changes", stats.Changes()).
		Msg("Rewrote decorate call")

	return stats
}
