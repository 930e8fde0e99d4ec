package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, FormatVector, cfg.Output.Format)
	assert.Empty(t, cfg.Output.SavePath)
	assert.Empty(t, cfg.Storage.Dir)
	assert.Equal(t, "warn", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	t.Run("overrides_defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "explaineval.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
output:
  format: summary
storage:
  dir: ./runs
`), 0644))

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, FormatSummary, cfg.Output.Format)
		assert.Equal(t, "./runs", cfg.Storage.Dir)
		// untouched keys keep defaults
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, "console", cfg.Logging.Format)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid_yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("output: [unclosed"), 0644))
		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("EXPLAINEVAL_OUTPUT_FORMAT", "json")
	t.Setenv("EXPLAINEVAL_STORAGE_DIR", "/tmp/runs")
	t.Setenv("EXPLAINEVAL_STORAGE_SYNC_WRITES", "on")
	t.Setenv("EXPLAINEVAL_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.Equal(t, "/tmp/runs", cfg.Storage.Dir)
	assert.True(t, cfg.Storage.SyncWrites)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"summary_format", func(c *Config) { c.Output.Format = FormatSummary }, false},
		{"unknown_format", func(c *Config) { c.Output.Format = "xml" }, true},
		{"uppercase_level", func(c *Config) { c.Logging.Level = "INFO" }, false},
		{"unknown_level", func(c *Config) { c.Logging.Level = "trace" }, true},
		{"unknown_log_format", func(c *Config) { c.Logging.Format = "text" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	assert.Contains(t, cfg.String(), "Store: disabled")
}
