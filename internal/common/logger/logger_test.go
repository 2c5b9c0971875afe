package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "assess-applicant-risk"})

	log.WithError(errors.New("boom")).Error("assessment failed", map[string]interface{}{"applicantId": "a-1"})
	log.Info("assessment completed", nil)

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "assess-applicant-risk", first["taskType"])
	assert.Equal(t, "a-1", first["applicantId"])
	assert.Equal(t, "boom", first["error"])
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)

	assert.Equal(t, "assessment completed", entries[1].Message)
	assert.NotContains(t, entries[1].ContextMap(), "error")
}

func TestNewWithOptions_BadOutputFallsBack(t *testing.T) {
	l := NewWithOptions(Options{Level: "info", Format: "json", Output: "/nonexistent-dir/risk.log"})
	require.NotNil(t, l)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}
