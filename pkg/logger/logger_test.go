package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestContextHandler(t *testing.T) {
	t.Run("adds request and trace ids", func(t *testing.T) {
		// given
		var buf bytes.Buffer
		log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))
		traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
		spanID, _ := trace.SpanIDFromHex("0102030405060708")
		sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
		ctx := trace.ContextWithSpanContext(context.Background(), sc)
		ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-1")

		// when
		log.InfoContext(ctx, "hello")

		// then
		rec := decode(t, &buf)
		assert.Equal(t, "req-1", rec["request_id"])
		assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", rec["trace_id"])
	})

	t.Run("plain context adds nothing", func(t *testing.T) {
		// given
		var buf bytes.Buffer
		log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "test")

		// when
		log.InfoContext(context.Background(), "hello")

		// then
		rec := decode(t, &buf)
		assert.NotContains(t, rec, "request_id")
		assert.NotContains(t, rec, "trace_id")
		assert.Equal(t, "test", rec["component"])
	})
}
