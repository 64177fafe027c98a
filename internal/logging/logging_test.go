package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad level", Config{Level: "loud", Format: "json", Output: "stderr"}},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stderr"}},
		{"bad output", Config{Level: "info", Format: "json", Output: "file"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNew(t *testing.T) {
	l, err := New(Config{Level: "warn", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestContextFields(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	fields := ContextFields(ctx)
	require.Len(t, fields, 2)
	assert.Equal(t, "trace_id", fields[0].Key)
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", fields[0].String)

	tl := NewTestLogger()
	For(ctx, tl.Logger).Info("scored")
	tl.AssertField(t, "scored", "span_id", "0102030405060708")
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()
	tl.Debug("model skipped", zap.String("model", "daylight"))
	tl.Info("recompute finished")

	tl.AssertLogged(t, zapcore.DebugLevel, "skipped")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "recompute")
	tl.AssertField(t, "model skipped", "model", "daylight")
	assert.Equal(t, 1, tl.FilterMessage("recompute").Len())

	tl.Reset()
	assert.Empty(t, tl.All())
}
