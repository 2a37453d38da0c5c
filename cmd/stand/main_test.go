package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stand/internal/irlog"
)

// runCLI executes a fresh command tree, the way each process invocation
// would.
func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigSetPersistsAcrossInvocations(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, cfgPath, "config", "set", "loop.step", "0.5")
	if err != nil {
		t.Fatalf("config set error = %v (output: %s)", err, out)
	}
	if !strings.Contains(out, "loop.step = 0.5") {
		t.Errorf("config set output = %q, want confirmation", out)
	}

	out, err = runCLI(t, cfgPath, "config", "get", "loop.step")
	if err != nil {
		t.Fatalf("config get error = %v", err)
	}
	if strings.TrimSpace(out) != "0.5" {
		t.Errorf("config get output = %q, want 0.5", out)
	}
}

func TestConfigSetRejectsUnknownKey(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if _, err := runCLI(t, cfgPath, "config", "set", "loop.bogus", "1"); err == nil {
		t.Fatal("config set with unknown key succeeded, want error")
	}
}

func TestConfigShowListsKeys(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, key := range []string{"serial.port", "loop.start_frequency", "commands.ir_engage"} {
		if !strings.Contains(out, key) {
			t.Errorf("config show output missing %q", key)
		}
	}
}

func TestConfigPathHonorsFlag(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "custom.toml")
	out, err := runCLI(t, cfgPath, "config", "path")
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if strings.TrimSpace(out) != cfgPath {
		t.Errorf("config path output = %q, want %q", out, cfgPath)
	}
}

func TestFormatFrequencies(t *testing.T) {
	got := formatFrequencies([]float64{1.0, 1.25, 2.5, 10.0})
	if got != "1, 1.25, 2.5, 10" {
		t.Errorf("formatFrequencies() = %q", got)
	}
}

func TestSweepProgress(t *testing.T) {
	cases := []struct {
		start, max, current float64
		want                float64
	}{
		{1, 11, 1, 0},
		{1, 11, 6, 50},
		{1, 11, 11.25, 100},
		{1, 1, 1, 100},
	}
	for _, tc := range cases {
		if got := sweepProgress(tc.start, tc.max, tc.current); got != tc.want {
			t.Errorf("sweepProgress(%v, %v, %v) = %v, want %v", tc.start, tc.max, tc.current, got, tc.want)
		}
	}
}

func TestActuationLogPath(t *testing.T) {
	if got := actuationLogPath("/data", "stand.log"); got != "/data/stand.log" {
		t.Errorf("relative log file = %q", got)
	}
	if got := actuationLogPath("/data", "/var/log/stand.log"); got != "/var/log/stand.log" {
		t.Errorf("absolute log file = %q", got)
	}
}

func TestActuationSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actuations.log")
	if got := actuationSummary(path); got != "none recorded" {
		t.Errorf("summary for missing log = %q", got)
	}

	w := irlog.NewWriter(path)
	ts := time.Date(2026, 8, 28, 10, 30, 0, 0, time.Local)
	for i, f := range []float64{1.0, 1.5, 2.0} {
		if err := w.Append(ts.Add(time.Duration(i)*time.Second), f); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got := actuationSummary(path)
	if !strings.HasPrefix(got, "3 recorded, last 2.0 Hz at ") {
		t.Errorf("summary = %q", got)
	}
}
