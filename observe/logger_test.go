package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("failed to parse log line as JSON: %v\nLine: %s", err, line)
		}
		out = append(out, entry)
	}
	return out
}

// TestLogger_WritesStructuredFields verifies fields land as JSON keys.
func TestLogger_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "cache status",
		F("cache.status", "HIT"),
		F("cache.confidence", 0.95),
	)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e["message"] != "cache status" {
		t.Errorf("expected message 'cache status', got %v", e["message"])
	}
	if e["level"] != "info" {
		t.Errorf("expected level info, got %v", e["level"])
	}
	if e["cache.status"] != "HIT" {
		t.Errorf("expected cache.status=HIT, got %v", e["cache.status"])
	}
	if e["cache.confidence"] != 0.95 {
		t.Errorf("expected cache.confidence=0.95, got %v", e["cache.confidence"])
	}
}

// TestLogger_LevelFiltering verifies entries below the level are dropped.
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	ctx := context.Background()
	logger.Debug(ctx, "dropped")
	logger.Info(ctx, "dropped")
	logger.Warn(ctx, "kept")
	logger.Error(ctx, "kept")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["level"] != "warn" || entries[1]["level"] != "error" {
		t.Errorf("unexpected levels: %v, %v", entries[0]["level"], entries[1]["level"])
	}
}

// TestLogger_RedactsSensitiveFields verifies credentials never reach output.
func TestLogger_RedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	logger.Info(context.Background(), "request",
		F("Authorization", "Bearer abc"),
		F("token", "abc"),
		F("path", "/posts"),
	)

	out := buf.String()
	if strings.Contains(out, "abc") {
		t.Fatalf("secret leaked into output: %s", out)
	}
	e := decodeLines(t, &buf)[0]
	if e["token"] != "[REDACTED]" {
		t.Errorf("expected token redacted, got %v", e["token"])
	}
	if e["path"] != "/posts" {
		t.Errorf("expected path kept, got %v", e["path"])
	}
}

// TestLogger_WithAddsBaseFields verifies With fields are attached to every entry.
func TestLogger_WithAddsBaseFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).With(F("component", "revalidate"))

	logger.Info(context.Background(), "first")
	logger.Warn(context.Background(), "second", F("error", errors.New("boom")))

	entries := decodeLines(t, &buf)
	for _, e := range entries {
		if e["component"] != "revalidate" {
			t.Errorf("expected component field, got %v", e["component"])
		}
	}
	if entries[1]["error"] != "boom" {
		t.Errorf("expected error string, got %v", entries[1]["error"])
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"WARNING": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNopLogger_NoPanic(t *testing.T) {
	l := NopLogger()
	l.With(F("a", 1)).Error(context.Background(), "ignored")
}
