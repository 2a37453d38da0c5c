package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stand/internal/logging"
)

func TestConsoleFormatIncludesAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("tone playing", logging.Frequency(440), logging.String("mode", "sweep"))

	got := buf.String()
	for _, want := range []string{"INFO", "tone playing", "frequency_hz=440", "mode=sweep"} {
		if !strings.Contains(got, want) {
			t.Errorf("console output missing %q: %s", want, got)
		}
	}
}

func TestJSONFormatRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("ir sent", logging.Frequency(12.5))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if record["msg"] != "ir sent" {
		t.Errorf("msg = %v, want %q", record["msg"], "ir sent")
	}
	if record["frequency_hz"] != 12.5 {
		t.Errorf("frequency_hz = %v, want 12.5", record["frequency_hz"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("kept")

	got := buf.String()
	if strings.Contains(got, "suppressed") {
		t.Errorf("info record should be filtered at warn level: %s", got)
	}
	if !strings.Contains(got, "kept") {
		t.Errorf("warn record missing: %s", got)
	}
}

func TestFilePathDuplicatesOutput(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "stand.log")
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf, FilePath: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("persisted")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "persisted") {
		t.Errorf("log file missing record: %s", data)
	}
	if buf.Len() == 0 {
		t.Error("primary output should also receive the record")
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
