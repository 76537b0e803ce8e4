// Package config defines the savant configuration and how it is loaded.
package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Year is the season fetched and merged.
	Year int `koanf:"year"`

	// BaseDir holds one sub-directory per season.
	BaseDir string `koanf:"base_dir"`

	// ReservedPrefix marks files the merge must not pick up as period files.
	ReservedPrefix string `koanf:"reserved_prefix"`

	// SourceURL is the Statcast CSV search endpoint.
	SourceURL string `koanf:"source_url"`

	TimeoutSeconds int `koanf:"timeout_seconds"`

	// Retries is the number of extra attempts after a transient fetch failure.
	Retries        int `koanf:"retries"`
	RetryBackoffMS int `koanf:"retry_backoff_ms"`

	// RequireAllPeriods makes a season with a missing period file fatal.
	RequireAllPeriods bool `koanf:"require_all_periods"`

	// MetricsFile, when set, receives the run's metrics in text exposition format.
	MetricsFile string `koanf:"metrics_file"`

	// InspectFile defaults to the April file of Year when empty.
	InspectFile   string `koanf:"inspect_file"`
	InspectColumn string `koanf:"inspect_column"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Year:           2024,
		BaseDir:        "files",
		ReservedPrefix: "savant",
		SourceURL:      "https://baseballsavant.mlb.com/statcast_search/csv",
		TimeoutSeconds: 120,
		Retries:        0,
		RetryBackoffMS: 5000,
		InspectColumn:  "attack_angle",
	}
}

// Timeout is the per-request upstream timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryBackoff is the pause between fetch attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// InspectPath is the file the inspect command reads.
func (c *Config) InspectPath() string {
	if c.InspectFile != "" {
		return c.InspectFile
	}
	return filepath.Join(c.BaseDir, fmt.Sprint(c.Year), fmt.Sprintf("april_%d.csv", c.Year))
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Year < 1000 || c.Year > 9999:
		return fmt.Errorf("%w: year %d is not a four-digit season", ErrInvalidConfig, c.Year)
	case c.BaseDir == "":
		return fmt.Errorf("%w: base_dir must not be empty", ErrInvalidConfig)
	case c.ReservedPrefix == "":
		return fmt.Errorf("%w: reserved_prefix must not be empty", ErrInvalidConfig)
	case c.SourceURL == "":
		return fmt.Errorf("%w: source_url must not be empty", ErrInvalidConfig)
	case c.TimeoutSeconds <= 0:
		return fmt.Errorf("%w: timeout_seconds must be positive", ErrInvalidConfig)
	case c.Retries < 0:
		return fmt.Errorf("%w: retries must not be negative", ErrInvalidConfig)
	case c.RetryBackoffMS < 0:
		return fmt.Errorf("%w: retry_backoff_ms must not be negative", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
