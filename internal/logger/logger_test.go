package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func parseEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}
	return entry
}

func TestSetup_ReturnsJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Info("garage created", slog.String("slug", "spring-clean"))

	entry := parseEntry(t, &buf)
	if entry["msg"] != "garage created" {
		t.Errorf("msg = %q, want %q", entry["msg"], "garage created")
	}
	if entry["slug"] != "spring-clean" {
		t.Errorf("slug = %q, want %q", entry["slug"], "spring-clean")
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in JSON log output")
	}
}

func TestSetup_LevelFieldAndThreshold(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug log should be suppressed, got %s", buf.String())
	}

	l.Warn("owner login failed")
	entry := parseEntry(t, &buf)
	if entry["level"] != "WARN" {
		t.Errorf("level = %q, want %q", entry["level"], "WARN")
	}
}

func TestSetup_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	l.InfoContext(ctx, "item created", slog.String("item_id", "i-1"))

	entry := parseEntry(t, &buf)
	if entry["trace_id"] != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace_id = %v", entry["trace_id"])
	}
	if entry["span_id"] != "00f067aa0ba902b7" {
		t.Errorf("span_id = %v", entry["span_id"])
	}
}

func TestSetup_NoTraceWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.InfoContext(context.Background(), "no span")

	entry := parseEntry(t, &buf)
	if _, ok := entry["trace_id"]; ok {
		t.Error("trace_id should be absent without a span")
	}
}

func TestSetup_WithAttrsKeepsTraceHandler(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf).With(slog.String("component", "cleanup"))

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	l.InfoContext(ctx, "participants cleaned", slog.Int64("deleted", 3))

	entry := parseEntry(t, &buf)
	if entry["component"] != "cleanup" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["trace_id"] != "0102030405060708090a0b0c0d0e0f10" {
		t.Errorf("trace_id = %v", entry["trace_id"])
	}
	if entry["deleted"] != float64(3) {
		t.Errorf("deleted = %v, want 3", entry["deleted"])
	}
}

func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupDefault(&buf)

	slog.Default().Info("global test", slog.String("test_key", "test_val"))

	entry := parseEntry(t, &buf)
	if entry["msg"] != "global test" {
		t.Errorf("msg = %q, want %q", entry["msg"], "global test")
	}
	if entry["test_key"] != "test_val" {
		t.Errorf("test_key = %q, want %q", entry["test_key"], "test_val")
	}
}
