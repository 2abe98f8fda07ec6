package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Source   SourceConfig   `yaml:"source"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Server   ServerConfig   `yaml:"server"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Driver string `yaml:"driver"`        // sqlite or postgres
	Path   string `yaml:"path"`          // sqlite file path
	URL    string `yaml:"url,omitempty"` // postgres connection URL
}

// SourceConfig holds settings for the remote trivia source
type SourceConfig struct {
	BaseURL         string   `yaml:"base_url"`
	MinSpacing      Duration `yaml:"min_spacing"`
	RequestTimeout  Duration `yaml:"request_timeout"`
	MaxBatchSize    int      `yaml:"max_batch_size"`
	MaxBatchRetries int      `yaml:"max_batch_retries"`
	// MaxTokenResets falls back to 3 when unset or 0; use -1 to disable resets
	MaxTokenResets  int      `yaml:"max_token_resets"`
	Types           []string `yaml:"types,omitempty"`        // remote type set
	Difficulties    []string `yaml:"difficulties,omitempty"` // remote difficulty set
}

// IngestConfig holds ingestion pipeline switches
type IngestConfig struct {
	DisableShuffle bool `yaml:"disable_shuffle"`
	SkipTrim       bool `yaml:"skip_trim"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	MaxAmount int    `yaml:"max_amount,omitempty"` // cap on /questions amount, 0 = none
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
