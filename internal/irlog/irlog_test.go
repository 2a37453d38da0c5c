package irlog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stand/internal/irlog"
)

func TestAppendFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stand.log")
	w := irlog.NewWriter(path)

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)
	if err := w.Append(ts, 12.25); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	want := "2026-03-14 09:26:53: 12.2\n"
	if string(data) != want {
		t.Errorf("log line = %q, want %q", data, want)
	}
}

func TestAppendIsAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stand.log")
	w := irlog.NewWriter(path)

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	for i, freq := range []float64{1.0, 2.0, 3.0} {
		if err := w.Append(base.Add(time.Duration(i)*time.Minute), freq); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("line count = %d, want 3", len(lines))
	}
}

func TestReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stand.log")
	w := irlog.NewWriter(path)

	ts := time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local)
	if err := w.Append(ts, 42.5); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	entries, err := irlog.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entry count = %d, want 1", len(entries))
	}
	if !entries[0].Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", entries[0].Timestamp, ts)
	}
	if entries[0].Frequency != 42.5 {
		t.Errorf("frequency = %g, want 42.5", entries[0].Frequency)
	}
}

func TestReadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stand.log")
	content := "garbage\n2026-03-14 10:30:00: 5.0\nnot a line: either\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	entries, err := irlog.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Frequency != 5.0 {
		t.Errorf("entries = %v, want single 5.0 entry", entries)
	}
}

func TestReadMissingFileReturnsEmpty(t *testing.T) {
	entries, err := irlog.Read(filepath.Join(t.TempDir(), "absent.log"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if entries != nil {
		t.Errorf("entries = %v, want nil", entries)
	}
}
