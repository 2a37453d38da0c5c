package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"stand/internal/config"
)

func TestLoadCreatesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Serial.Port != "/dev/ttyUSB0" {
		t.Errorf("serial.port = %q, want /dev/ttyUSB0", cfg.Serial.Port)
	}
	if cfg.Loop.MaxLoopsPerRun != 250 {
		t.Errorf("loop.max_loops_per_run = %d, want 250", cfg.Loop.MaxLoopsPerRun)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config was not persisted: %v", err)
	}
}

func TestLoadCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("loop = {{{ nonsense"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	cfg, err := config.Load(path)
	if !errors.Is(err, config.ErrCorruptFile) {
		t.Fatalf("err = %v, want ErrCorruptFile", err)
	}
	if cfg.Loop.Step != 0.25 {
		t.Errorf("loop.step = %g, want default 0.25", cfg.Loop.Step)
	}
}

func TestLoadClampsOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[loop]\nstep = -4.0\nmax_loops_per_run = 0\ncurrent_frequency = 12.5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Loop.Step != 0.25 {
		t.Errorf("negative step not clamped: %g", cfg.Loop.Step)
	}
	if cfg.Loop.MaxLoopsPerRun != 250 {
		t.Errorf("zero loop cap not clamped: %d", cfg.Loop.MaxLoopsPerRun)
	}
	if cfg.Loop.CurrentFrequency != 12.5 {
		t.Errorf("valid progress pointer was altered: %g", cfg.Loop.CurrentFrequency)
	}
}

func TestStoreProgressRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	store, err := config.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	store.SetCurrentFrequency(42.25)
	if err := store.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reopened, err := config.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if got := reopened.CurrentFrequency(); got != 42.25 {
		t.Errorf("current frequency after reopen = %g, want 42.25", got)
	}
}

func TestStoreSetRejectsInvalidValues(t *testing.T) {
	store := openStore(t)

	cases := []struct {
		key   string
		value string
	}{
		{"loop.step", "0"},
		{"loop.step", "abc"},
		{"serial.baudrate", "-1"},
		{"log_format", "yaml"},
		{"loop.unknown", "1"},
	}
	for _, tc := range cases {
		if err := store.Set(tc.key, tc.value); err == nil {
			t.Errorf("Set(%q, %q) should fail", tc.key, tc.value)
		}
	}
}

func TestStoreSetAndGet(t *testing.T) {
	store := openStore(t)

	if err := store.Set("loop.max_frequency", "300.5"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := store.Get("loop.max_frequency")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "300.5" {
		t.Errorf("Get = %q, want 300.5", got)
	}

	if _, err := store.Get("nope"); !errors.Is(err, config.ErrUnknownKey) {
		t.Errorf("Get unknown key err = %v, want ErrUnknownKey", err)
	}
}

func TestIRCommandEscaping(t *testing.T) {
	store := openStore(t)

	if err := store.Set("commands.ir_engage", `!t\r\n`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	cfg := store.Snapshot()
	if got := string(cfg.IRCommand()); got != "!t\r\n" {
		t.Errorf("IRCommand = %q, want %q", got, "!t\r\n")
	}
	shown, err := store.Get("commands.ir_engage")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if shown != `!t\r\n` {
		t.Errorf("displayed command = %q, want escaped form", shown)
	}
}

func openStore(t *testing.T) *config.Store {
	t.Helper()
	store, err := config.Open(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return store
}
