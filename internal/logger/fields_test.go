package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCommonFieldsSkipsBlankValues(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	WithCommonFields(zap.New(core), "gemini", "  ").Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, map[string]any{FieldProvider: "gemini"}, entries[0].ContextMap())
}

func TestWithPair(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	WithPair(WithComponent(zap.New(core), "alignment"), "u1", "p1").Info("request")

	require.Equal(t, map[string]any{
		FieldComponent: "alignment",
		FieldViewer:    "u1",
		FieldProject:   "p1",
	}, logs.All()[0].ContextMap())
}

func TestNilLoggerBecomesNop(t *testing.T) {
	require.NotPanics(t, func() {
		WithComponent(nil, "").Info("ignored")
		WithCommonFields(nil, "openai", "gpt").Info("ignored")
	})
}

func TestNew(t *testing.T) {
	l, err := New(true, true)
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New(false, false)
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.DebugLevel))
}
