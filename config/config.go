package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/INLOpen/tombstones/core"
	"gopkg.in/yaml.v3"
)

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // e.g., "debug", "info", "warn", "error"
	Output string `yaml:"output"` // e.g., "stderr", "stdout", "file", "none"
	File   string `yaml:"file"`   // Path to the log file, used if output is "file"
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // e.g., "localhost:4317" for gRPC OTLP collector
	Protocol string `yaml:"protocol"` // "grpc" or "http"
}

// CodecConfig selects how range tombstones are written.
type CodecConfig struct {
	ProtocolVersion string `yaml:"protocol_version"` // "1.2", "2.0", "2.1" or a raw number
	Compression     string `yaml:"compression"`      // "none", "snappy", "lz4" or "zstd"
}

// LedgerConfig holds range tombstone list settings.
type LedgerConfig struct {
	InitialCapacity int `yaml:"initial_capacity"`
}

// RepairConfig holds read repair settings.
type RepairConfig struct {
	MaxConcurrency int `yaml:"max_concurrency"`
}

// PurgeConfig holds tombstone garbage collection settings.
type PurgeConfig struct {
	// GCGracePeriod is how long a tombstone is kept after its local
	// deletion time.
	GCGracePeriod string `yaml:"gc_grace_period"`
}

// MetricsConfig controls the expvar metrics of the ledger.
type MetricsConfig struct {
	Publish bool   `yaml:"publish"`
	Prefix  string `yaml:"prefix"`
}

// Config is the top-level configuration struct.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
	Codec   CodecConfig   `yaml:"codec"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Repair  RepairConfig  `yaml:"repair"`
	Purge   PurgeConfig   `yaml:"purge"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// DefaultGCGracePeriod is used when purge.gc_grace_period is unset or invalid.
const DefaultGCGracePeriod = 10 * 24 * time.Hour

// ParseDuration parses a duration string. Returns the default duration if the string is empty or invalid.
// Logs a warning if the string is invalid but not empty.
func ParseDuration(durationStr string, defaultDuration time.Duration, logger *slog.Logger) time.Duration {
	if durationStr == "" || durationStr == "0" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		if logger != nil {
			logger.Warn("Invalid duration format, using default", "input", durationStr, "default", defaultDuration.String(), "error", err)
		}
		return defaultDuration
	}
	return d
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			File:   "rtl.log",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Endpoint: "localhost:4317",
			Protocol: "grpc",
		},
		Codec: CodecConfig{
			ProtocolVersion: "current",
			Compression:     "zstd",
		},
		Ledger: LedgerConfig{
			InitialCapacity: 16,
		},
		Repair: RepairConfig{
			MaxConcurrency: 4,
		},
		Purge: PurgeConfig{
			GCGracePeriod: "240h",
		},
		Metrics: MetricsConfig{
			Publish: false,
			Prefix:  "rtl_",
		},
	}
}

// Load reads configuration from an io.Reader, on top of the defaults.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()

	// If the reader is nil, it's like an empty file, return defaults.
	if r == nil {
		return cfg, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads configuration from a YAML file by path. A missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Load(nil)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}

// Validate checks the values that have a fixed vocabulary.
func (c *Config) Validate() error {
	if _, err := c.Codec.ProtocolVersionValue(); err != nil {
		return fmt.Errorf("codec.protocol_version: %w", err)
	}
	if _, err := c.Codec.CompressionType(); err != nil {
		return fmt.Errorf("codec.compression: %w", err)
	}
	if c.Ledger.InitialCapacity < 0 {
		return fmt.Errorf("ledger.initial_capacity must not be negative, got %d", c.Ledger.InitialCapacity)
	}
	switch c.Tracing.Protocol {
	case "grpc", "http":
	default:
		return fmt.Errorf("tracing.protocol must be grpc or http, got %q", c.Tracing.Protocol)
	}
	return nil
}

// ProtocolVersionValue resolves the configured protocol version.
func (c CodecConfig) ProtocolVersionValue() (core.ProtocolVersion, error) {
	return core.ParseProtocolVersion(c.ProtocolVersion)
}

// CompressionType resolves the configured compression.
func (c CodecConfig) CompressionType() (core.CompressionType, error) {
	return core.ParseCompressionType(c.Compression)
}

// GCBefore returns the local deletion time before which tombstones are
// purgeable at now.
func (c PurgeConfig) GCBefore(now time.Time, logger *slog.Logger) int32 {
	grace := ParseDuration(c.GCGracePeriod, DefaultGCGracePeriod, logger)
	return int32(now.Add(-grace).Unix())
}
