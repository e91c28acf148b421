// Package filter decides which files are handed to the processor.
package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wouteroostervld/decoshrink/pkg/logging"
)

// Config holds filter configuration
type Config struct {
	Extensions []string // e.g. ".js"; empty accepts every extension
	Exclude    []string // directory names or globs on the base name
	Blacklist  []string // regexes on the absolute path
	Whitelist  []string // exceptions to the blacklist
}

// Filter applies a Config. Regexes are compiled once in New.
type Filter struct {
	extensions map[string]bool
	exclude    []string
	blacklist  []*regexp.Regexp
	whitelist  []*regexp.Regexp
	logger     zerolog.Logger
}

// New compiles cfg into a Filter
func New(cfg Config) (*Filter, error) {
	f := &Filter{
		extensions: make(map[string]bool, len(cfg.Extensions)),
		exclude:    cfg.Exclude,
		logger:     logging.GetLogger("filter"),
	}

	for _, ext := range cfg.Extensions {
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions[strings.ToLower(ext)] = true
	}

	var err error
	if f.blacklist, err = compileAll(cfg.Blacklist); err != nil {
		return nil, fmt.Errorf("invalid blacklist: %w", err)
	}
	if f.whitelist, err = compileAll(cfg.Whitelist); err != nil {
		return nil, fmt.Errorf("invalid whitelist: %w", err)
	}

	return f, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		res = append(res, re)
	}
	return res, nil
}

// ShouldDescend reports whether a directory walk should enter dir
func (f *Filter) ShouldDescend(dir string) bool {
	return !IsExcluded(filepath.Base(dir), f.exclude)
}

// ShouldProcess reports whether path is a file the processor should see:
// an accepted extension, no excluded directory on its path, and not
// blacklisted unless whitelisted.
// Returns: has_extension AND NOT in_excluded_dir AND (NOT blacklisted OR whitelisted)
func (f *Filter) ShouldProcess(path string) bool {
	if len(f.extensions) > 0 && !f.extensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		f.logger.Debug().Err(err).Str("path", path).Msg("Cannot resolve path")
		return false
	}

	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(absPath)), "/") {
		if part != "" && IsExcluded(part, f.exclude) {
			f.logger.Trace().Str("path", absPath).Str("dir", part).Msg("In excluded directory")
			return false
		}
	}

	pattern := firstMatch(f.blacklist, absPath)
	if pattern == nil {
		return true
	}
	if exception := firstMatch(f.whitelist, absPath); exception != nil {
		f.logger.Trace().Str("path", absPath).Str("whitelist", exception.String()).Msg("Whitelist exception matched")
		return true
	}

	f.logger.Debug().Str("path", absPath).Str("blacklist", pattern.String()).Msg("Rejecting file")
	return false
}

func firstMatch(patterns []*regexp.Regexp, path string) *regexp.Regexp {
	for _, re := range patterns {
		if re.MatchString(path) {
			return re
		}
	}
	return nil
}

// IsExcluded checks a single path element against exclude patterns, as a
// glob on the name or a literal name
func IsExcluded(name string, exclude []string) bool {
	for _, pattern := range exclude {
		if name == pattern {
			return true
		}
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}
