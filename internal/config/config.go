// Package config loads the YAML configuration of the icmpv6dump tool.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete tool configuration
type Config struct {
	Capture CaptureConfig `yaml:"capture"`
	Decoder DecoderConfig `yaml:"decoder"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// CaptureConfig describes how frames are read
type CaptureConfig struct {
	// Encap overrides the link type of the capture file when set.
	Encap string `yaml:"encap"`
	// Filter drops frames that are not ICMPv6 before decoding. ICMPv6 behind
	// a hop-by-hop header passes, any other extension header does not.
	Filter bool `yaml:"filter"`
}

// DecoderConfig sizes the worker pool
type DecoderConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	Pretty string `yaml:"pretty"` // auto, always or never
	// All prints frames without an ICMPv6 layer too.
	All bool `yaml:"all"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig points at an optional node exporter textfile
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{Filter: true},
		Decoder: DecoderConfig{Workers: 4, QueueSize: 256},
		Output:  OutputConfig{Pretty: "auto"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path on top of the defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) Validate() error {
	if err := c.Capture.Validate(); err != nil {
		return fmt.Errorf("capture config: %w", err)
	}
	if err := c.Decoder.Validate(); err != nil {
		return fmt.Errorf("decoder config: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

func (c *CaptureConfig) Validate() error {
	switch c.Encap {
	case "", "ethernet", "ipv6":
		return nil
	}
	return fmt.Errorf("encap must be ethernet or ipv6, got %q", c.Encap)
}

func (d *DecoderConfig) Validate() error {
	if d.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", d.Workers)
	}
	if d.QueueSize < 0 {
		return fmt.Errorf("queue_size cannot be negative, got %d", d.QueueSize)
	}
	return nil
}

func (o *OutputConfig) Validate() error {
	switch o.Pretty {
	case "auto", "always", "never":
		return nil
	}
	return fmt.Errorf("pretty must be auto, always or never, got %q", o.Pretty)
}

func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", l.Level)
	}
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", l.Format)
	}
	return nil
}
