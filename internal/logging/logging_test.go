package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/dshills/patchguard/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"verbose", slog.LevelWarn},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LogConfig{Level: "info", Format: "json"})
	logger.Debug("hidden")
	logger.Info("analyzed file", "path", "a.go", "findings", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["msg"] != "analyzed file" {
		t.Errorf("msg = %v, want %q", rec["msg"], "analyzed file")
	}
	if rec["path"] != "a.go" {
		t.Errorf("path = %v, want %q", rec["path"], "a.go")
	}
}

func TestNew_TextDefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LogConfig{})
	logger.Info("quiet")
	logger.Warn("diff diagnostic", "kind", "orphan-line")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Error("info should be filtered at the default warn level")
	}
	if !strings.Contains(out, "kind=orphan-line") {
		t.Errorf("text output missing attribute: %q", out)
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing happens")
}
