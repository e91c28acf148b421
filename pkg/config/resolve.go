package config

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/wouteroostervld/decoshrink/pkg/logging"
)

func logger() *zerolog.Logger {
	l := logging.GetLogger("config")
	return &l
}

// NormalizePath converts backslash separators to forward slashes so that
// Windows and POSIX spellings of a path match the same globs
func NormalizePath(path string) string {
	if !strings.Contains(path, `\`) {
		return path
	}
	return strings.ReplaceAll(path, `\`, "/")
}

// Matches reports whether any of the rule's patterns matches path. path must
// already be normalised.
func (r *OverrideRule) Matches(path string) bool {
	return r.matchesWith(defaultPatterns, path)
}

func (r *OverrideRule) matchesWith(cache *PatternCache, path string) bool {
	for _, pattern := range r.Files {
		if cache.Get(pattern).Match(path) {
			return true
		}
	}
	return false
}

// Resolve folds every override whose patterns match path onto base, in
// declaration order. An empty path means "no file context" and returns base
// unchanged.
func Resolve(base Options, overrides []OverrideRule, path string) Options {
	return resolveWith(defaultPatterns, base, overrides, path)
}

func resolveWith(cache *PatternCache, base Options, overrides []OverrideRule, path string) Options {
	resolved := Options{}.Merge(base)

	if path == "" {
		return resolved
	}

	normalized := NormalizePath(path)
	for i := range overrides {
		rule := &overrides[i]
		if rule.Config.IsEmpty() || !rule.matchesWith(cache, normalized) {
			continue
		}
		logger().Debug().Int("rule", i).Strs("files", rule.Files).Str("path", normalized).Msg("Override matched")
		resolved = resolved.Merge(rule.Config)
	}

	return resolved
}

// Resolve returns the effective Options for path
func (c *PluginConfig) Resolve(path string) Options {
	return Resolve(c.Options, c.Overrides, path)
}

// ResolveFlags returns the effective Flags for path, unset switches filled
// from the defaults
func (c *PluginConfig) ResolveFlags(path string) Flags {
	return c.Resolve(path).Flags()
}
