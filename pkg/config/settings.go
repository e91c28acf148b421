package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read into Settings
const EnvPrefix = "DECOSHRINK_"

// Settings are the host's runtime settings, separate from the rewrite
// configuration document
type Settings struct {
	ConfigFile string        `koanf:"config"`     // Rewrite config document (empty = discover)
	CacheDB    string        `koanf:"cache_db"`   // SQLite cache path
	NoCache    bool          `koanf:"no_cache"`   // Disable the incremental cache
	Workers    int           `koanf:"workers"`    // Files processed concurrently
	LogLevel   string        `koanf:"log_level"`  // trace, debug, info, warn, error
	Debounce   time.Duration `koanf:"debounce"`   // Watch mode debounce delay
	Extensions []string      `koanf:"extensions"` // File extensions to process
	Exclude    []string      `koanf:"exclude"`    // Directory names to skip
	Blacklist  []string      `koanf:"blacklist"`  // Regexes of files to reject
	Whitelist  []string      `koanf:"whitelist"`  // Exceptions to the blacklist
}

// DefaultSettingsPath is where LoadSettings looks when no path is given
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".decoshrink", "settings.yaml")
}

func defaultSettingsMap() map[string]interface{} {
	cacheDB := ""
	if home, err := os.UserHomeDir(); err == nil {
		cacheDB = filepath.Join(home, ".decoshrink", "cache.db")
	}

	return map[string]interface{}{
		"config":     "",
		"cache_db":   cacheDB,
		"no_cache":   false,
		"workers":    4,
		"log_level":  "warn",
		"debounce":   time.Second,
		"extensions": []string{".js", ".mjs", ".cjs", ".ts"},
		"exclude":    []string{"node_modules", ".git"},
		"blacklist":  []string{},
		"whitelist":  []string{},
	}
}

// LoadSettings layers defaults, the settings file at path (skipped when it
// does not exist) and DECOSHRINK_* environment variables, later layers winning
func LoadSettings(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultSettingsMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load default settings: %w", err)
	}

	// relative paths in the settings file are relative to the file itself
	baseDir := ""
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load settings from %s: %w", path, err)
			}
			baseDir = filepath.Dir(path)
		}
	}

	envToKey := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load settings from environment: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	if s.Workers <= 0 {
		s.Workers = 1
	}
	for key, dst := range map[string]*string{"cache_db": &s.CacheDB, "config": &s.ConfigFile} {
		if *dst == "" {
			continue
		}
		resolved, err := resolveSettingPath(baseDir, key, *dst)
		if err != nil {
			return nil, err
		}
		*dst = resolved
	}

	return &s, nil
}

// resolveSettingPath expands ~ in a path setting. Values that came from the
// settings file are also made relative to its directory; environment values
// stay relative to the working directory.
func resolveSettingPath(baseDir, key, value string) (string, error) {
	if _, fromEnv := os.LookupEnv(EnvPrefix + strings.ToUpper(key)); fromEnv || baseDir == "" {
		return ExpandHome(value)
	}
	return ResolveRelativePath(baseDir, value)
}
