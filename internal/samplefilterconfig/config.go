// Package samplefilterconfig loads the configuration for the samplefilter
// demonstration extension.
package samplefilterconfig

import (
	"flag"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// MetricsConfig holds configuration for the Prometheus metrics exporter.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

// Config holds the samplefilter-specific configuration.
type Config struct {
	LogLevel       string        `toml:"log_level"`
	SessionTimeout int           `toml:"session_timeout"`
	Blocklist      []string      `toml:"blocklist"`
	FilteredHeader string        `toml:"filtered_header"`
	Metrics        MetricsConfig `toml:"metrics"`
}

// Default returns a Config with sensible default values.
func Default() Config {
	return Config{
		LogLevel:       "info",
		SessionTimeout: 300,
		FilteredHeader: "X-Filtered-By: osmtpd-filter samplefilter",
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9102",
		},
	}
}

// Validate checks that the configuration is valid and returns an error if
// not.
func (c *Config) Validate() error {
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("session_timeout must be positive")
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return fmt.Errorf("metrics address is required when metrics are enabled")
	}
	return nil
}

// Flags holds command-line flag values.
type Flags struct {
	ConfigPath string
	LogLevel   string
}

// ParseFlags parses command-line flags and returns a Flags struct.
func ParseFlags() *Flags {
	f := &Flags{}
	flag.StringVar(&f.ConfigPath, "config", "./samplefilter.toml", "Path to configuration file")
	flag.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.Parse()
	return f
}

// Load parses a TOML configuration file and returns the Config. If the
// file does not exist, returns the default configuration.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// LoadWithFlags loads configuration from the path specified in flags, then
// applies flag overrides.
func LoadWithFlags(f *Flags) (Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	return cfg, nil
}
