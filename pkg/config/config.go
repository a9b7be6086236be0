package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/faults"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/format"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/generator"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/pacing"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/store"
)

// Sink names where generated records go
const (
	SinkFile    = "file"
	SinkPebble  = "pebble"
	SinkDiscard = "discard"
)

// Config represents the telegen configuration
type Config struct {
	Schema    string    `yaml:"schema"`
	Output    Output    `yaml:"output"`
	Generator Generator `yaml:"generator"`
	Faults    Faults    `yaml:"faults"`
	Codec     Codec     `yaml:"codec"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
}

// Output controls where and how records are written
type Output struct {
	Dir           string        `yaml:"dir"`
	Prefix        string        `yaml:"prefix"`
	Format        string        `yaml:"format"`
	MaxBytes      int64         `yaml:"max_bytes"`
	MaxFiles      int           `yaml:"max_files"`
	Compression   string        `yaml:"compression"`
	FsyncInterval time.Duration `yaml:"fsync_interval"`
	BufferSize    int           `yaml:"buffer_size"`
	Sink          string        `yaml:"sink"`
	PebbleDir     string        `yaml:"pebble_dir"`
}

// Generator controls record production
type Generator struct {
	Records        int64         `yaml:"records"`
	BatchSize      int           `yaml:"batch_size"`
	Workers        int           `yaml:"workers"`
	Seed           uint64        `yaml:"seed"`
	Backend        string        `yaml:"backend"`
	Rate           float64       `yaml:"rate"` // records per second, 0 = unlimited
	Burst          int           `yaml:"burst"`
	Pacing         string        `yaml:"pacing"`
	SequenceField  string        `yaml:"sequence_field"`
	TimestampField string        `yaml:"timestamp_field"`
	Interval       time.Duration `yaml:"interval"`
}

// Faults controls fault injection
type Faults struct {
	Probability float64  `yaml:"probability"`
	Kinds       []string `yaml:"kinds,omitempty"`
}

// Codec holds decoder options
type Codec struct {
	VerifyCRC bool `yaml:"verify_crc"`
}

// Server contains HTTP API configuration
type Server struct {
	Port        int      `yaml:"port"`
	Bind        string   `yaml:"bind"`
	APIKey      string   `yaml:"api_key"`
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Schema: "./schema.json",
		Output: Output{
			Dir:           "./out",
			Prefix:        "telemetry",
			Format:        string(format.Binary),
			MaxBytes:      64 << 20,
			Compression:   "none",
			FsyncInterval: time.Second,
			BufferSize:    64 * 1024,
			Sink:          SinkFile,
			PebbleDir:     "./data",
		},
		Generator: Generator{
			Records:        10000,
			BatchSize:      generator.DefaultBatchSize,
			Workers:        4,
			Seed:           1,
			Backend:        string(generator.BackendPCG),
			Pacing:         "token",
			SequenceField:  "seq",
			TimestampField: "timestamp",
			Interval:       generator.DefaultInterval,
		},
		Server: Server{
			Port: 8080,
			Bind: "127.0.0.1",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return config, nil
}

// SchemaPath resolves the schema file against the directory of the config
// file it was loaded from
func (c *Config) SchemaPath(configPath string) string {
	if c.Schema == "" || filepath.IsAbs(c.Schema) || configPath == "" {
		return c.Schema
	}
	return filepath.Join(filepath.Dir(configPath), c.Schema)
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, err := format.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, err)
	}
	if tag, err := store.ParseCompressionTag(c.Output.Compression); err != nil {
		errs = append(errs, err)
	} else if tag == store.CompressionAuto {
		add("output compression must be explicit")
	}
	switch c.Output.Sink {
	case "", SinkFile, SinkPebble, SinkDiscard:
	default:
		add("unknown sink %q", c.Output.Sink)
	}
	if c.Output.MaxBytes < 0 || c.Output.MaxFiles < 0 {
		add("max_bytes and max_files must not be negative")
	}

	g := c.Generator
	if g.Records < 0 || g.BatchSize < 0 || g.Workers < 0 {
		add("records, batch_size and workers must not be negative")
	}
	if g.Rate < 0 || g.Burst < 0 {
		add("rate and burst must not be negative")
	}
	if _, err := generator.ParseBackend(g.Backend); err != nil {
		errs = append(errs, err)
	}
	if _, err := pacing.New(g.Pacing, 1, 1); err != nil {
		errs = append(errs, err)
	}

	if c.Faults.Probability < 0 || c.Faults.Probability > 1 {
		add("fault probability %v outside [0, 1]", c.Faults.Probability)
	}
	if _, err := faults.ParseKinds(c.Faults.Kinds); err != nil {
		errs = append(errs, err)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		add("invalid port %d", c.Server.Port)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		add("unknown log format %q", c.Logging.Format)
	}
	return errors.Join(errs...)
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a fresh API key
func BootstrapConfig(configPath string, schemaPath string) (*Config, error) {
	config := DefaultConfig()
	if schemaPath != "" {
		config.Schema = schemaPath
	}

	apiKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Server.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./telegen.yaml"
	}

	// For Linux/macOS, use ~/.config/telegen/config.yaml
	configDir := filepath.Join(homeDir, ".config", "telegen")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
