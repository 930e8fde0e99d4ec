// Package config holds explaineval settings.
//
// Settings are layered, later layers winning:
//  1. DefaultConfig()
//  2. a YAML file (LoadFromFile)
//  3. environment variables (ApplyEnv)
//  4. command-line flags, applied by the CLI
//
// With nothing set, the evaluator prints only the ratio vector and keeps no
// state between runs.
//
// Environment Variables:
//   - EXPLAINEVAL_OUTPUT_FORMAT=vector|summary|compact|json
//   - EXPLAINEVAL_OUTPUT_SAVE_PATH=./result.json
//   - EXPLAINEVAL_STORAGE_DIR=./runs
//   - EXPLAINEVAL_STORAGE_SYNC_WRITES=true
//   - EXPLAINEVAL_LOG_LEVEL=debug|info|warn|error
//   - EXPLAINEVAL_LOG_FORMAT=console|json
//
// Example YAML:
//
//	output:
//	  format: summary
//	  save_path: result.json
//	storage:
//	  dir: ./runs
//	logging:
//	  level: info
//	  format: console
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatVector  = "vector"
	FormatSummary = "summary"
	FormatCompact = "compact"
	FormatJSON    = "json"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatVector, FormatSummary, FormatCompact, FormatJSON}

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all explaineval configuration.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// OutputConfig controls how results are reported.
type OutputConfig struct {
	// Format is one of Formats. The default prints the ratio vector only.
	Format string `yaml:"format"`
	// SavePath, when set, also writes the full result as JSON.
	SavePath string `yaml:"save_path"`
}

// StorageConfig controls the run archive.
type StorageConfig struct {
	// Dir is the badger directory. Empty disables the archive.
	Dir string `yaml:"dir"`
	// SyncWrites fsyncs every archived run.
	SyncWrites bool `yaml:"sync_writes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level (debug, info, warn, error)
	Level string `yaml:"level"`
	// Format (console, json)
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format: FormatVector,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// LoadFromFile reads a YAML file over the defaults.
// Keys missing from the file keep their default value.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Load returns the defaults, overlaid by path (if non-empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from EXPLAINEVAL_* environment variables.
func (c *Config) ApplyEnv() {
	c.Output.Format = getEnv("EXPLAINEVAL_OUTPUT_FORMAT", c.Output.Format)
	c.Output.SavePath = getEnv("EXPLAINEVAL_OUTPUT_SAVE_PATH", c.Output.SavePath)
	c.Storage.Dir = getEnv("EXPLAINEVAL_STORAGE_DIR", c.Storage.Dir)
	c.Storage.SyncWrites = getEnvBool("EXPLAINEVAL_STORAGE_SYNC_WRITES", c.Storage.SyncWrites)
	c.Logging.Level = getEnv("EXPLAINEVAL_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("EXPLAINEVAL_LOG_FORMAT", c.Logging.Format)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !IsFormat(c.Output.Format) {
		return fmt.Errorf("%w: output format %q (want one of %s)",
			ErrInvalidConfig, c.Output.Format, strings.Join(Formats, ", "))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Logging.Level)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Logging.Format)
	}

	return nil
}

// IsFormat reports whether f is an accepted output format.
func IsFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// String returns a one-line representation suitable for logging.
func (c *Config) String() string {
	store := c.Storage.Dir
	if store == "" {
		store = "disabled"
	}
	return fmt.Sprintf("Config{Format: %s, Save: %q, Store: %s, Log: %s/%s}",
		c.Output.Format, c.Output.SavePath, store, c.Logging.Level, c.Logging.Format)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}
