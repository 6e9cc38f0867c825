package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// TestSetup_JSONFormat tests that the JSON handler emits parseable records.
func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer

	logger, err := Setup(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}

	logger.Info("store opened", "path", "data/investigations.ndjson")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v\noutput: %s", err, buf.String())
	}
	if entry["msg"] != "store opened" {
		t.Errorf("msg = %v, want %q", entry["msg"], "store opened")
	}
	if entry["path"] != "data/investigations.ndjson" {
		t.Errorf("path = %v, want data/investigations.ndjson", entry["path"])
	}
}

// TestSetup_LevelFiltering tests that records below the configured level are
// suppressed.
func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger, err := Setup(Config{Level: "warn", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	logger.Warn("should appear")

	output := buf.String()
	if strings.Contains(output, "should not appear") {
		t.Errorf("suppressed levels leaked into output: %s", output)
	}
	if !strings.Contains(output, "should appear") {
		t.Errorf("warn record missing from output: %s", output)
	}
}

// TestSetup_InvalidInputs tests rejection of unknown levels and formats.
func TestSetup_InvalidInputs(t *testing.T) {
	if _, err := Setup(Config{Level: "loud"}); err == nil {
		t.Error("Setup() accepted unknown level")
	}
	if _, err := Setup(Config{Format: "xml"}); err == nil {
		t.Error("Setup() accepted unknown format")
	}
}

// TestSetup_InstallsDefault tests that the configured logger becomes the
// process default.
func TestSetup_InstallsDefault(t *testing.T) {
	var buf bytes.Buffer

	prev := slog.Default()
	defer slog.SetDefault(prev)

	if _, err := Setup(Config{Level: "info", Format: "json", Writer: &buf}); err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}

	slog.Default().With("component", "store").Info("hello")
	if !strings.Contains(buf.String(), `"component":"store"`) {
		t.Errorf("default logger not installed, output: %s", buf.String())
	}
}
