package config

import (
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// pathSeparator is the only separator the compiled globs know about; paths are
// normalised to it before matching
const pathSeparator = '/'

// Pattern is a compiled override glob. A pattern that failed to compile never
// matches.
type Pattern struct {
	source string
	globs  []glob.Glob
	err    error
}

// Match reports whether the normalised path matches the whole pattern
func (p *Pattern) Match(path string) bool {
	for _, g := range p.globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Err returns the compile error, if any
func (p *Pattern) Err() error {
	return p.err
}

// String returns the pattern as written
func (p *Pattern) String() string {
	return p.source
}

func compilePattern(pattern string) *Pattern {
	p := &Pattern{source: pattern}

	g, err := glob.Compile(pattern, pathSeparator)
	if err != nil {
		p.err = err
		return p
	}
	p.globs = append(p.globs, g)

	// A leading "**/" also matches zero directories, so "**/x.ts" matches "x.ts"
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok && rest != "" {
		if g, err := glob.Compile(rest, pathSeparator); err == nil {
			p.globs = append(p.globs, g)
		}
	}

	return p
}

// PatternCache holds compiled globs keyed by their source text. Safe for
// concurrent use, so one cache can serve every file of a run.
type PatternCache struct {
	mu    sync.RWMutex
	cache map[string]*Pattern
}

// NewPatternCache creates an empty cache
func NewPatternCache() *PatternCache {
	return &PatternCache{
		cache: make(map[string]*Pattern),
	}
}

// Get returns the compiled pattern, compiling and storing it on first use
func (c *PatternCache) Get(pattern string) *Pattern {
	c.mu.RLock()
	p, ok := c.cache[pattern]
	c.mu.RUnlock()
	if ok {
		return p
	}

	p = compilePattern(pattern)
	if p.err != nil {
		logger().Warn().Err(p.err).Str("pattern", pattern).Msg("Invalid override pattern, it will never match")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have compiled it meanwhile
	if existing, ok := c.cache[pattern]; ok {
		return existing
	}
	c.cache[pattern] = p
	return p
}

// Len returns the number of cached patterns
func (c *PatternCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.cache)
}

// Clear removes all entries from the cache
func (c *PatternCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*Pattern)
}

var defaultPatterns = NewPatternCache()
