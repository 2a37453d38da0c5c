package engine

import (
	"context"
	"errors"
	"log/slog"

	"stand/internal/logging"
	"stand/internal/tone"
)

// Run outcomes, as recorded in run history.
const (
	OutcomeCompleted = "completed"
	OutcomePaused    = "paused"
	OutcomeStopped   = "stopped"
	OutcomeAborted   = "aborted"
)

// loopWorker steps through the frequency sequence, plays each tone, and
// fires the per-iteration trigger consumed by the IR worker.
type loopWorker struct {
	cfg          RunConfig
	steps        []Step // nil selects continuous sweep mode
	saveProgress bool

	store   ProgressStore
	tones   TonePlayer
	trig    *trigger
	history *History
	logger  *slog.Logger

	// superseded records a trigger displaced before the IR worker could
	// service it.
	superseded func(frequency float64)
}

// loopResult describes how a run ended.
type loopResult struct {
	outcome       string
	lastFrequency float64
	steps         int
	err           error
}

// run executes the sweep until completion, the step cap, cancellation,
// or an unrecoverable error. A failed iteration aborts the run rather
// than retrying; retries happen only through the missing-frequency path.
func (w *loopWorker) run(ctx context.Context) loopResult {
	// Closing the trigger lets the IR worker finish any pending shot and
	// exit on its own instead of being cancelled out from under it.
	defer w.trig.close()

	count := 0
	index := 0
	last := 0.0

	for {
		if ctx.Err() != nil {
			return loopResult{outcome: OutcomeStopped, lastFrequency: last, steps: count}
		}

		step, ok := w.nextStep(index)
		if !ok {
			w.logger.Info("run completed",
				logging.Int("steps", count),
				logging.Float64("max_hz", w.cfg.MaxFrequency),
			)
			return loopResult{outcome: OutcomeCompleted, lastFrequency: last, steps: count}
		}

		if count >= w.cfg.MaxStepsPerRun {
			w.logger.Info("step cap reached; pausing run",
				logging.Int("max_steps", w.cfg.MaxStepsPerRun),
				logging.Frequency(step.Frequency),
			)
			return loopResult{outcome: OutcomePaused, lastFrequency: last, steps: count}
		}

		last = step.Frequency
		w.history.Add(step.Frequency)
		w.logger.Info("playing tone",
			logging.Frequency(step.Frequency),
			logging.Float64("duration_s", step.ToneDuration),
			logging.Int("step", count+1),
			logging.Int("max_steps", w.cfg.MaxStepsPerRun),
		)

		// The trigger must be raised before rendering so the IR delay
		// runs against the tone, not after it. A displaced trigger means
		// the IR delay outran the iteration; that frequency goes to the
		// missed set so reconciliation can replay it.
		if old, displaced := w.trig.Fire(step.Frequency); displaced {
			w.logger.Warn("ir trigger superseded before firing", logging.Frequency(old))
			w.superseded(old)
		}

		spec := tone.Fixed(step.Frequency, step.ToneDuration, w.cfg.FadeSeconds)
		if err := w.tones.Render(ctx, spec); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return loopResult{outcome: OutcomeStopped, lastFrequency: last, steps: count}
			}
			w.logger.Error("tone playback failed; aborting run",
				logging.Frequency(step.Frequency),
				logging.Error(err),
			)
			return loopResult{outcome: OutcomeAborted, lastFrequency: last, steps: count, err: err}
		}
		if ctx.Err() != nil {
			// Cancelled during the tone: the step did not complete, so
			// progress is not advanced.
			return loopResult{outcome: OutcomeStopped, lastFrequency: last, steps: count}
		}

		// The step is complete once the tone played and progress moved;
		// a stop during the post-sleep must still count it.
		w.advance(step, &index)
		count++

		if !sleepCtx(ctx, secondsToDuration(step.PostSleep)) {
			return loopResult{outcome: OutcomeStopped, lastFrequency: last, steps: count}
		}
	}
}

// nextStep yields the upcoming step, or ok=false when the sequence is
// exhausted. Continuous mode reads the persisted progress pointer so a
// resumed run picks up exactly where the previous one checkpointed.
func (w *loopWorker) nextStep(index int) (Step, bool) {
	if w.steps != nil {
		if index >= len(w.steps) {
			return Step{}, false
		}
		return w.steps[index], true
	}

	freq := w.store.CurrentFrequency()
	// Half a step of tolerance keeps the lattice endpoint despite
	// float accumulation error.
	if freq > w.cfg.MaxFrequency+w.cfg.StepSize/2 {
		return Step{}, false
	}
	return Step{
		Frequency:    freq,
		ToneDuration: w.cfg.ToneDuration,
		PostSleep:    w.cfg.PostSleep,
		IRDelay:      w.cfg.IRDelay,
	}, true
}

// advance moves to the next step after a fully played tone. Continuous
// mode persists the checkpoint; rerun mode only moves its own index and
// leaves the sweep pointer untouched.
func (w *loopWorker) advance(step Step, index *int) {
	if w.steps != nil {
		*index++
		return
	}

	w.store.SetCurrentFrequency(step.Frequency + w.cfg.StepSize)
	if w.saveProgress {
		if err := w.store.Save(); err != nil {
			w.logger.Warn("progress save failed; resume will replay this step",
				logging.Frequency(step.Frequency),
				logging.Error(err),
			)
		}
	}
}
