// Package config provides configuration management for triviamirror.
//
// Settings come from an optional YAML file, then environment variables, then
// command-line flags in the binaries. The environment variables match the
// names the service has always used: DATABASE_URL, API_HUG_MS and
// API_MAX_AMOUNT.
//
// Config file locations (priority order):
//  1. $TRIVIA_CONFIG
//  2. ./triviamirror.yaml
//  3. ~/.config/triviamirror/config.yaml
//  4. /etc/triviamirror/config.yaml
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"triviamirror/internal/domain"
	"triviamirror/internal/opentdb"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultTokenResets = 3
)

// Load finds and loads the config file, or returns defaults if none found.
// Environment overrides are applied in both cases.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		cfg.applyDefaults()
		return cfg, "", cfg.Validate()
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{Version: 1}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = "./triviamirror.db"
	}
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = "https://opentdb.com"
	}
	if c.Source.MinSpacing == 0 {
		c.Source.MinSpacing = Duration(5000 * time.Millisecond)
	}
	if c.Source.RequestTimeout == 0 {
		c.Source.RequestTimeout = Duration(30 * time.Second)
	}
	if c.Source.MaxBatchSize == 0 {
		c.Source.MaxBatchSize = opentdb.MaxAmount
	}
	if c.Source.MaxTokenResets == 0 {
		c.Source.MaxTokenResets = defaultTokenResets
	}
	if len(c.Source.Types) == 0 {
		c.Source.Types = append([]string(nil), domain.DefaultTypes...)
	}
	if len(c.Source.Difficulties) == 0 {
		c.Source.Difficulties = append([]string(nil), domain.DefaultDifficulties...)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
}

// applyEnv overrides file values with environment variables
func (c *Config) applyEnv() {
	if url := envString("DATABASE_URL", ""); url != "" {
		switch {
		case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
			c.Database.Driver = DriverPostgres
			c.Database.URL = url
		default:
			c.Database.Driver = DriverSQLite
			c.Database.Path = strings.TrimPrefix(url, "file:")
		}
	}
	if ms := envInt("API_HUG_MS", 0); ms > 0 {
		c.Source.MinSpacing = Duration(time.Duration(ms) * time.Millisecond)
	}
	if n := envInt("API_MAX_AMOUNT", 0); n > 0 {
		c.Source.MaxBatchSize = n
	}
}

// Validate checks settings that would make the pipeline misbehave
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for postgres")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Source.MaxBatchSize < 1 || c.Source.MaxBatchSize > opentdb.MaxAmount {
		return fmt.Errorf("source.max_batch_size must be between 1 and %d, got %d", opentdb.MaxAmount, c.Source.MaxBatchSize)
	}
	if c.Source.MaxBatchRetries < 0 {
		return fmt.Errorf("source.max_batch_retries must not be negative")
	}
	return nil
}

// TokenResets returns how many consecutive token resets a batch may use.
// A negative max_token_resets disables resets.
func (s SourceConfig) TokenResets() int {
	if s.MaxTokenResets < 0 {
		return 0
	}
	return s.MaxTokenResets
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	db := c.Database.Path
	if c.Database.Driver == DriverPostgres {
		db = "postgres"
	}
	return fmt.Sprintf("Database: %s (%s), Source: %s, Spacing: %s, Batch: %d, Retries: %d",
		db, c.Database.Driver, c.Source.BaseURL, c.Source.MinSpacing.Duration(),
		c.Source.MaxBatchSize, c.Source.MaxBatchRetries)
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
