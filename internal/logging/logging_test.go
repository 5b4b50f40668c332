package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestAutoFormatUsesJSONOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "auto", &buf)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("hello", "owner", "alice")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
	if record["msg"] != "hello" || record["owner"] != "alice" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", "text", &buf)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, "loud") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRejectsUnknownSettings(t *testing.T) {
	if _, err := New("chatty", "text", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
	if _, err := New("info", "xml", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
}
