// Package config holds application configuration with defaults and an
// optional YAML overlay.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	// RosterPath is the device mapping file.
	RosterPath string `yaml:"roster" default:"device_mappings.txt"`
	// ReloadInterval bounds how often the mapping file is re-checked.
	ReloadInterval time.Duration `yaml:"reload_interval" default:"5s"`
	// ScanDuration limits how long the watch command runs; zero means
	// indefinite.
	ScanDuration time.Duration `yaml:"scan_duration" default:"0s"`
	// MatchByName also resolves roster entries by advertised device name.
	MatchByName bool `yaml:"match_name" default:"true"`
	// LogLevel is the logrus level name.
	LogLevel string `yaml:"log_level" default:"panic"`
	// OutputFormat selects the watch output style (plain, json).
	OutputFormat string `yaml:"output_format" default:"plain"`
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// LoadFile returns defaults overlaid with the YAML document at path.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return cfg, nil
}

// UnmarshalYAML overlays only the keys present in the document and accepts
// durations in time.ParseDuration form ("30s"), which yaml.v3 does not
// decode into time.Duration on its own.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Roster         *string `yaml:"roster"`
		ReloadInterval *string `yaml:"reload_interval"`
		ScanDuration   *string `yaml:"scan_duration"`
		MatchName      *bool   `yaml:"match_name"`
		LogLevel       *string `yaml:"log_level"`
		OutputFormat   *string `yaml:"output_format"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Roster != nil {
		c.RosterPath = *raw.Roster
	}
	if raw.ReloadInterval != nil {
		d, err := time.ParseDuration(*raw.ReloadInterval)
		if err != nil {
			return fmt.Errorf("invalid reload_interval: %w", err)
		}
		c.ReloadInterval = d
	}
	if raw.ScanDuration != nil {
		d, err := time.ParseDuration(*raw.ScanDuration)
		if err != nil {
			return fmt.Errorf("invalid scan_duration: %w", err)
		}
		c.ScanDuration = d
	}
	if raw.MatchName != nil {
		c.MatchByName = *raw.MatchName
	}
	if raw.LogLevel != nil {
		c.LogLevel = *raw.LogLevel
	}
	if raw.OutputFormat != nil {
		c.OutputFormat = *raw.OutputFormat
	}
	return nil
}

// NewLogger creates a configured logger instance.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger, nil
}
