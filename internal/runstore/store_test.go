package runstore_test

import (
	"context"
	"errors"
	"testing"

	"stand/internal/engine"
	"stand/internal/runstore"
)

func openStore(t *testing.T) *runstore.Store {
	t.Helper()
	store, err := runstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.BeginRun(ctx, engine.ModeSweep, 1.0)
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if err := store.FinishRun(ctx, id, engine.OutcomePaused, 63.5, 250); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("run count = %d, want 1", len(runs))
	}
	run := runs[0]
	if run.ID != id || run.Mode != engine.ModeSweep {
		t.Errorf("run = %+v, want id=%s mode=sweep", run, id)
	}
	if run.Outcome != engine.OutcomePaused || run.EndFrequency != 63.5 || run.StepsCompleted != 250 {
		t.Errorf("run outcome fields = %+v", run)
	}
	if run.StartedAt.IsZero() || run.FinishedAt.IsZero() {
		t.Errorf("timestamps not recorded: %+v", run)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := openStore(t)
	err := store.FinishRun(context.Background(), "no-such-run", engine.OutcomeStopped, 0, 0)
	if !errors.Is(err, runstore.ErrRunNotFound) {
		t.Fatalf("err = %v, want ErrRunNotFound", err)
	}
}

func TestMissedFrequenciesPerRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.BeginRun(ctx, engine.ModeSweep, 1.0)
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	for _, freq := range []float64{3.0, 1.0, 2.0} {
		if err := store.RecordMissed(ctx, first, freq, "write failed"); err != nil {
			t.Fatalf("RecordMissed failed: %v", err)
		}
	}

	second, err := store.BeginRun(ctx, engine.ModeRerun, 1.0)
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if err := store.RecordMissed(ctx, second, 2.0, "disconnected"); err != nil {
		t.Fatalf("RecordMissed failed: %v", err)
	}

	got, err := store.MissedForRun(ctx, first)
	if err != nil {
		t.Fatalf("MissedForRun failed: %v", err)
	}
	want := []float64{1.0, 2.0, 3.0}
	if len(got) != len(want) {
		t.Fatalf("missed = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("missed = %v, want sorted %v", got, want)
		}
	}

	last, err := store.LastRunMissed(ctx)
	if err != nil {
		t.Fatalf("LastRunMissed failed: %v", err)
	}
	if len(last) != 1 || last[0] != 2.0 {
		t.Errorf("last run missed = %v, want [2.0]", last)
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if runs[0].ID != second {
		t.Errorf("most recent run = %s, want %s", runs[0].ID, second)
	}
	if runs[1].MissedCount != 3 {
		t.Errorf("first run missed count = %d, want 3", runs[1].MissedCount)
	}
}

func TestLastRunMissedEmptyStore(t *testing.T) {
	store := openStore(t)
	got, err := store.LastRunMissed(context.Background())
	if err != nil {
		t.Fatalf("LastRunMissed failed: %v", err)
	}
	if got != nil {
		t.Errorf("missed = %v, want nil", got)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	dir := t.TempDir()
	store, err := runstore.Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()
	if _, err := store.BeginRun(ctx, engine.ModeSweep, 1.0); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := runstore.Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	runs, err := reopened.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("run count after reopen = %d, want 1", len(runs))
	}
}
