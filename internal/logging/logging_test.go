package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"facelyze-api/internal/config"
)

func TestNewHonoursLevel(t *testing.T) {
	logger, err := New(config.AppConfig{Name: "t", Env: "prod"}, config.LogConfig{Level: "warn"})
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.AppConfig{Env: "dev"}, config.LogConfig{Level: "chatty"})
	assert.Error(t, err)
}
