package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name      string
		json      bool
		debug     bool
		wantDebug bool
	}{
		{name: "console info", json: false, debug: false, wantDebug: false},
		{name: "console debug", json: false, debug: true, wantDebug: true},
		{name: "json info", json: true, debug: false, wantDebug: false},
		{name: "json debug", json: true, debug: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.json, tt.debug)
			require.NoError(t, err)
			require.NotNil(t, logger)

			assert.Equal(t, tt.wantDebug, logger.Core().Enabled(zapcore.DebugLevel))
			assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestWithFields(t *testing.T) {
	assert.NotNil(t, WithFields(nil))

	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)
	assert.Same(t, base, WithFields(base))

	WithFields(base, zap.String("source", "github")).Info("collector failed")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "github", entries[0].ContextMap()["source"])
}
