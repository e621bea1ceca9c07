// Package config provides YAML configuration parsing for BenchHub.
//
// This package enables running BenchHub as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	log_level: info
//	allowed_origins:
//	  - http://localhost:5173
//	sweep_interval: 30s
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// minSweepInterval is the minimum allowed liveness sweep interval.
// This prevents accidental DoS of connected clients with ping spam.
const minSweepInterval = 1 * time.Second

// Config is the root configuration structure for BenchHub.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`

	// AllowedOrigins is the CORS allow-list for browser clients.
	// "*" allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// SweepInterval enables the liveness sweep that pings every
	// subscriber connection and prunes the dead ones. Accepts duration
	// strings like "30s" or "1m". Omit (or zero) to disable; dead
	// connections are then only discovered at publish time.
	SweepInterval Duration `yaml:"sweep_interval"`
}

// Duration wraps time.Duration for YAML parsing of strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Defaults are applied for Port (8080) and LogLevel (info).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks the parsed configuration.
func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	if c.SweepInterval != 0 && c.SweepInterval.Duration() < minSweepInterval {
		return fmt.Errorf("sweep_interval must be at least %s, got %s", minSweepInterval, c.SweepInterval.Duration())
	}

	for i, origin := range c.AllowedOrigins {
		if origin == "*" {
			continue
		}
		parsed, err := url.Parse(origin)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("allowed_origins[%d]: %q is not a valid origin", i, origin)
		}
	}

	return nil
}

// SlogLevel maps the configured log level to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
}
