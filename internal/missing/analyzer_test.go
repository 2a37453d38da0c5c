package missing_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"stand/internal/engine"
	"stand/internal/missing"
)

func TestExpectedIncludesEndpoint(t *testing.T) {
	got, err := missing.Expected(0, 10, 2.5)
	if err != nil {
		t.Fatalf("Expected failed: %v", err)
	}

	want := []float64{0, 2.5, 5, 7.5, 10}
	if len(got) != len(want) {
		t.Fatalf("lattice size = %d, want %d (%v)", len(got), len(want), got)
	}
	for _, freq := range want {
		if _, ok := got[freq]; !ok {
			t.Errorf("lattice missing %g", freq)
		}
	}
}

func TestExpectedSurvivesAccumulationError(t *testing.T) {
	// 0.1 is not representable in binary; naive accumulation can
	// overshoot the endpoint by ~1e-6 and drop it.
	got, err := missing.Expected(0.1, 100, 0.1)
	if err != nil {
		t.Fatalf("Expected failed: %v", err)
	}
	if _, ok := got[100.0]; !ok {
		t.Error("endpoint 100.0 missing from lattice")
	}
	if len(got) != 1000 {
		t.Errorf("lattice size = %d, want 1000", len(got))
	}
}

func TestExpectedRejectsBadLattice(t *testing.T) {
	if _, err := missing.Expected(0, 10, 0); !errors.Is(err, missing.ErrInvalidLattice) {
		t.Errorf("zero step: err = %v, want ErrInvalidLattice", err)
	}
	if _, err := missing.Expected(10, 0, 1); !errors.Is(err, missing.ErrInvalidLattice) {
		t.Errorf("inverted range: err = %v, want ErrInvalidLattice", err)
	}
}

func TestMissingIsSortedDifference(t *testing.T) {
	expected, err := missing.Expected(0, 10, 2.5)
	if err != nil {
		t.Fatalf("Expected failed: %v", err)
	}
	captured := map[float64]struct{}{0: {}, 5: {}, 10: {}}

	got := missing.Missing(expected, captured)
	want := []float64{2.5, 7.5}
	if len(got) != len(want) {
		t.Fatalf("missing = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("missing = %v, want %v", got, want)
		}
	}
}

func TestCapturedParsesFilenamePrefixes(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"0.00-20260314T103000.mp4",
		"5.00_shot.mp4",
		"10.00.mp4",
		"notes.txt",
		"x12.50-bad.mp4",
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	got, err := missing.Captured(dir)
	if err != nil {
		t.Fatalf("Captured failed: %v", err)
	}
	for _, want := range []float64{0, 5, 10} {
		if _, ok := got[want]; !ok {
			t.Errorf("captured set missing %g", want)
		}
	}
	if len(got) != 3 {
		t.Errorf("captured = %v, want exactly {0, 5, 10}", got)
	}
}

func TestCapturedMissingDirIsEmpty(t *testing.T) {
	got, err := missing.Captured(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("Captured failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("captured = %v, want empty", got)
	}
}

func TestStepsPreserveOrderAndTiming(t *testing.T) {
	cfg := engine.RunConfig{ToneDuration: 2, PostSleep: 5, IRDelay: 1}
	steps := missing.Steps([]float64{1.0, 2.0, 3.0}, cfg)

	if len(steps) != 3 {
		t.Fatalf("step count = %d, want 3", len(steps))
	}
	for i, want := range []float64{1.0, 2.0, 3.0} {
		step := steps[i]
		if step.Frequency != want {
			t.Errorf("step %d frequency = %g, want %g", i, step.Frequency, want)
		}
		if step.ToneDuration != 2 || step.PostSleep != 5 || step.IRDelay != 1 {
			t.Errorf("step %d timing = %+v, want run config timing", i, step)
		}
	}
}

func TestRangesCompression(t *testing.T) {
	got := missing.Ranges([]float64{1.0, 1.25, 1.5, 3.0, 5.0, 5.25}, 0.25)
	want := []string{"1.00-1.50", "3.00", "5.00-5.25"}
	if len(got) != len(want) {
		t.Fatalf("ranges = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ranges = %v, want %v", got, want)
			break
		}
	}
}
