package logger_test

import (
	"testing"

	"github.com/straye-as/preflight/internal/config"
	"github.com/straye-as/preflight/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func appConfig(env string) *config.AppConfig {
	return &config.AppConfig{Name: "Straye Preflight", Environment: env}
}

func TestNewLogger_ProductionJSON(t *testing.T) {
	l, err := logger.NewLogger(&config.LoggingConfig{Level: "debug", Format: "json"}, appConfig("production"))

	require.NoError(t, err)
	require.NotNil(t, l)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_DevelopmentConsole(t *testing.T) {
	l, err := logger.NewLogger(&config.LoggingConfig{Level: "info", Format: "console"}, appConfig("development"))

	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	l, err := logger.NewLogger(&config.LoggingConfig{Level: "shouting", Format: "json"}, appConfig("production"))

	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestWithRequest_AttachesRequestFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := logger.WithRequest(zap.New(core), "GET", "/health", "req-123")

	l.Info("handled")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/health", fields["path"])
	assert.Equal(t, "req-123", fields["request_id"])
}
