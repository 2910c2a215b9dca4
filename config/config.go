// Package config loads container configuration from YAML files.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration of a container.
type Config struct {
	ID           string        `yaml:"id" validate:"omitempty,max=128"`
	Intents      QueueConfig   `yaml:"intents"`
	Actions      QueueConfig   `yaml:"actions"`
	Logging      LoggingConfig `yaml:"logging"`
	Metrics      MetricsConfig `yaml:"metrics"`
	StrictReduce bool          `yaml:"strict_reduce"`
}

// QueueConfig bounds a queue. Capacity 0 means unbounded and ignores Overflow.
type QueueConfig struct {
	Capacity int    `yaml:"capacity" validate:"gte=0"`
	Overflow string `yaml:"overflow" validate:"omitempty,oneof=block drop_oldest reject"`
}

// LoggingConfig selects the slog handler, level and destination.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
	Output string `yaml:"output" validate:"omitempty,oneof=stdout stderr discard"`
}

// MetricsConfig names the metrics scope and how often it is reported.
type MetricsConfig struct {
	Prefix           string `yaml:"prefix" validate:"omitempty,max=64"`
	ReportIntervalMS int    `yaml:"report_interval_ms" validate:"gte=0"`
}

// Default returns the configuration used when no file is given:
// unbounded queues, info-level text logs on stderr.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Prefix:           "mvix",
			ReportIntervalMS: 1000,
		},
	}
}

// Load reads configuration from file and applies environment variable overrides
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default, applies environment overrides and validates.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides checks for environment variables with MVIX_ prefix
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MVIX_ID"); v != "" {
		cfg.ID = v
	}
	if v := os.Getenv("MVIX_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("MVIX_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("MVIX_INTENT_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Intents.Capacity = n
		}
	}
	if v := os.Getenv("MVIX_ACTION_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Actions.Capacity = n
		}
	}
}

// SlogLevel maps the configured level to slog. Unknown values mean info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Writer returns the configured log destination.
func (l LoggingConfig) Writer() io.Writer {
	switch l.Output {
	case "stdout":
		return os.Stdout
	case "discard":
		return io.Discard
	default:
		return os.Stderr
	}
}

// NewLogger builds a slog logger writing to w, or to Writer() when w is nil.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = l.Writer()
	}
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
