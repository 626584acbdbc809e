// Package config loads lab settings from an optional YAML file and
// CRUCIBLE_* environment variables. Flag handling stays in the CLI; the
// resolution order is defaults, then file, then environment, then flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"crucible/internal/storage"

	"gopkg.in/yaml.v3"
)

// Config holds the deployment-level settings shared by every command.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Results ResultsConfig `yaml:"results"`
	Logging LoggingConfig `yaml:"logging"`
	Oracle  OracleConfig  `yaml:"oracle"`
}

type StoreConfig struct {
	// Kind selects the backend: "memory" or "sqlite".
	Kind string `yaml:"kind"`
	// Path is the sqlite database file; the memory backend ignores it.
	Path string `yaml:"path"`
}

type ResultsConfig struct {
	// Dir is the root for run artifacts and the run index.
	Dir string `yaml:"dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type OracleConfig struct {
	// Path is the default model artifact used when --oracle is not given.
	Path string `yaml:"path"`
}

func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Kind: storage.DefaultStoreKind(),
			Path: "crucible.db",
		},
		Results: ResultsConfig{
			Dir: "results",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load resolves configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment overrides. Callers merge
// flags afterwards and run Validate once the full picture is known.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile parses a YAML config on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case "", storage.KindMemory:
	case storage.KindSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("store path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("invalid store kind: %s (valid: memory, sqlite)", c.Store.Kind)
	}

	validLevels := map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{"": true, "text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	if strings.TrimSpace(c.Results.Dir) == "" {
		return fmt.Errorf("results dir is required")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CRUCIBLE_STORE"); v != "" {
		cfg.Store.Kind = v
	}
	if v := os.Getenv("CRUCIBLE_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("CRUCIBLE_RESULTS_DIR"); v != "" {
		cfg.Results.Dir = v
	}
	if v := os.Getenv("CRUCIBLE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CRUCIBLE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CRUCIBLE_ORACLE"); v != "" {
		cfg.Oracle.Path = v
	}
}
