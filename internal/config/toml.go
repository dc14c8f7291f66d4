// Package config provides configuration helpers and TOML/YAML parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileConfig represents the configuration file.
type FileConfig struct {
	Session  SessionConfig  `toml:"session" yaml:"session"`
	Terminal TerminalConfig `toml:"terminal" yaml:"terminal"`
	Web      WebConfig      `toml:"web" yaml:"web"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// SessionConfig maps session bounds.
type SessionConfig struct {
	LogRows       *int `toml:"log-rows" yaml:"log-rows"`
	PatternLength *int `toml:"pattern-length" yaml:"pattern-length"`
}

// TerminalConfig maps terminal front-end settings.
type TerminalConfig struct {
	ReleaseAfterMs *int  `toml:"release-after-ms" yaml:"release-after-ms"`
	NoAltScreen    *bool `toml:"no-alt-screen" yaml:"no-alt-screen"`
}

// WebConfig maps browser front-end settings.
type WebConfig struct {
	Addr *string `toml:"addr" yaml:"addr"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level  *string `toml:"level" yaml:"level"`
	Format *string `toml:"format" yaml:"format"`
}

// LoadConfig reads a TOML or YAML config from the given path, choosing the
// format by extension. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
		}
	}
	return cfg, nil
}

// ResolveConfigPath returns the first existing config file among the
// supported names, or the default TOML path when none exists.
func ResolveConfigPath() string {
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		path := filepath.Join(ConfigDir(), name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return DefaultConfigPath()
}
