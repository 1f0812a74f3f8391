package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{Level: "debug", Format: "console"}.Validate())
	assert.Error(t, Config{Level: "loud", Format: "json"}.Validate())
	assert.Error(t, Config{Level: "info", Format: "xml"}.Validate())
}

func TestNew(t *testing.T) {
	logger, err := New(Config{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = New(Config{Level: "info", Format: "yaml"})
	assert.Error(t, err)
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))

	ctx = WithRequestID(context.Background(), "bad id\n")
	assert.Empty(t, RequestIDFromContext(ctx))
	assert.Empty(t, ContextFields(ctx))
}

func TestFor_AddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	For(WithRequestID(context.Background(), "abc"), base).Info("hello")
	For(context.Background(), base).Info("plain")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "abc", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestFor_NilLogger(t *testing.T) {
	assert.NotNil(t, For(context.Background(), nil))
}
