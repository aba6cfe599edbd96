package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWithSinkFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithSink(zapcore.AddSync(&buf), zapcore.WarnLevel)

	logger.Info("hidden message")
	logger.Warn("visible message", zap.String("document", "rehber.pdf"))
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info should be filtered at warn level:\n%s", out)
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "rehber.pdf") {
		t.Errorf("expected warning with field, got:\n%s", out)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := JSON(zapcore.AddSync(&buf))
	logger.Info("request", zap.Int("status", 200))
	_ = logger.Sync()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "request" {
		t.Errorf("unexpected msg %v", entry["msg"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("unexpected status %v", entry["status"])
	}
}

func TestNewDoesNotPanic(t *testing.T) {
	if New(true) == nil || New(false) == nil {
		t.Fatal("expected logger")
	}
}
