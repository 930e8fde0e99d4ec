package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/orneryd/explaineval/pkg/config"
)

func TestNew(t *testing.T) {
	t.Run("level_from_config", func(t *testing.T) {
		logger, err := New(config.LoggingConfig{Level: "warn", Format: "console"}, false)
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("verbose_forces_debug", func(t *testing.T) {
		logger, err := New(config.LoggingConfig{Level: "error", Format: "json"}, true)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("uppercase_level", func(t *testing.T) {
		_, err := New(config.LoggingConfig{Level: "INFO", Format: "console"}, false)
		assert.NoError(t, err)
	})

	t.Run("bad_level", func(t *testing.T) {
		_, err := New(config.LoggingConfig{Level: "loud", Format: "console"}, false)
		assert.Error(t, err)
	})
}
