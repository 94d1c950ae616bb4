package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/contre95/bandpass/src/features/config"
)

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.Logger{Level: "info", Format: "json"})
	logger.Info("Library scanned", "tracks", 3)

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", line, err)
	}
	if entry["msg"] != "Library scanned" {
		t.Errorf("expected msg field, got %v", entry["msg"])
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.Logger{Level: "warn", Format: "logfmt"})
	logger.Info("hidden")
	logger.Debug("hidden too")
	if buf.Len() != 0 {
		t.Errorf("expected info and debug to be filtered, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}
