// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func parseLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestSetup_ServiceIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(Options{Service: "core", Version: "0.2.0"}, &buf)

	logger.Info("started")

	entry := parseLine(t, &buf)
	assert.Equal(t, "core", entry["service"])
	assert.Equal(t, "0.2.0", entry["version"])
	assert.Equal(t, "started", entry["msg"])
}

func TestSetup_TraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(Options{Service: "core"}, &buf)

	traceID := trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	spanID := trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	logger.InfoContext(ctx, "dispatching")

	entry := parseLine(t, &buf)
	assert.Equal(t, traceID.String(), entry["trace_id"])
	assert.Equal(t, spanID.String(), entry["span_id"])
}

func TestSetup_NoTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(Options{Service: "core"}, &buf)

	logger.InfoContext(context.Background(), "quiet")

	entry := parseLine(t, &buf)
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(Options{Service: "core", Format: "text"}, &buf)

	logger.Info("started")

	out := buf.String()
	assert.Contains(t, out, "msg=started")
	assert.Contains(t, out, "service=core")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestSetup_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(Options{Service: "core", Level: "warn"}, &buf)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Positive(t, buf.Len())
}

func TestSetup_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(Options{Service: "core"}, &buf).With("extension", "healer").WithGroup("dispatch")

	logger.Info("handled", "command", "test.heal")

	entry := parseLine(t, &buf)
	assert.Equal(t, "healer", entry["extension"])

	group, ok := entry["dispatch"].(map[string]any)
	require.True(t, ok, "grouped attrs must nest")
	assert.Equal(t, "test.heal", group["command"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{name: "debug", want: slog.LevelDebug},
		{name: "INFO", want: slog.LevelInfo},
		{name: "Warn", want: slog.LevelWarn},
		{name: "error", want: slog.LevelError},
		{name: "bogus", want: slog.LevelInfo},
		{name: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.name), "level %q", tt.name)
	}
}
