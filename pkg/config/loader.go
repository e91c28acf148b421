package config

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for documents that are neither JSON nor YAML
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Format of a configuration document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ConfigFileNames are looked up, in this order, in every directory FindConfig visits
var ConfigFileNames = []string{
	".decoshrinkrc.json",
	".decoshrinkrc.yaml",
	".decoshrinkrc.yml",
}

// FormatForPath picks the decoder from the file extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Parse decodes a configuration document. An empty document decodes to an
// empty PluginConfig (every switch unset, no overrides).
func Parse(data []byte, format Format) (*PluginConfig, error) {
	var cfg PluginConfig

	if len(bytes.TrimSpace(data)) == 0 {
		return &cfg, nil
	}

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	for i, rule := range cfg.Overrides {
		switch {
		case len(rule.Files) == 0:
			logger().Warn().Int("rule", i).Msg("Override without files patterns never matches")
		case rule.Config.IsEmpty():
			logger().Warn().Int("rule", i).Strs("files", rule.Files).Msg("Override sets no switches")
		}
	}

	return &cfg, nil
}

// LoadFromPath reads and decodes the document at path
func LoadFromPath(path string, fs FileSystem) (*PluginConfig, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault never fails: a missing, unreadable or malformed document
// yields DefaultPluginConfig and a warning
func LoadOrDefault(path string, fs FileSystem) *PluginConfig {
	if path == "" {
		return DefaultPluginConfig()
	}

	cfg, err := LoadFromPath(path, fs)
	if err != nil {
		logger().Warn().Err(err).Str("path", path).Msg("Falling back to default configuration")
		return DefaultPluginConfig()
	}

	return cfg
}

// FindConfigWithFS walks up from startDir to find the nearest configuration
// document. Returns an empty string if there is none.
func FindConfigWithFS(startDir string, fs FileSystem) (string, error) {
	absDir, err := fs.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := filepath.Clean(absDir)
	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(currentDir, name)
			if _, err := fs.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", nil
}
