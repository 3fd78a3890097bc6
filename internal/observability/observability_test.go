package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecom-dashboard/internal/config"
)

func TestNewLogger_FormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(config.LoggerConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept", "records", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "ecom-dashboard", line["service"])
	assert.EqualValues(t, 3, line["records"])

	buf.Reset()
	NewLoggerTo(config.LoggerConfig{Level: "info", Format: "text"}, &buf).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("bogus"))
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestSpans_NestAndLog(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "dashboard")
	_, child := StartSpan(ctx, "aggregate")

	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)
	assert.Len(t, parent.SpanID, 16)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	child.SetTag("table", "category_sales")
	child.SetError(errors.New("boom"))
	child.End(ctx, logger)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	span, ok := line["span"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "aggregate", span["operation"])
	assert.Equal(t, "category_sales", span["table"])
	assert.Equal(t, "boom", span["error"])
}
