package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_RejectsUnknownLevel(t *testing.T) {
	err := Init("loud", "json")
	assert.Error(t, err)
}

func TestInit_SetLevel(t *testing.T) {
	t.Cleanup(func() { Replace(zap.NewNop()) })

	require.NoError(t, Init("info", "console"))
	assert.False(t, L().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, SetLevel("debug"))
	assert.True(t, L().Core().Enabled(zapcore.DebugLevel))
}

func TestReplace(t *testing.T) {
	t.Cleanup(func() { Replace(zap.NewNop()) })

	core, logs := observer.New(zapcore.InfoLevel)
	Replace(zap.New(core))

	Info("resident admitted", zap.String("nim", "1001"))
	Debug("dropped")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "resident admitted", entries[0].Message)
	assert.Equal(t, "1001", entries[0].ContextMap()["nim"])
}
