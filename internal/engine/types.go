package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"stand/internal/config"
	"stand/internal/tone"
)

// Step is one frequency to play, with its timing. Immutable once built.
type Step struct {
	Frequency    float64 // Hz
	ToneDuration float64 // seconds
	PostSleep    float64 // seconds
	IRDelay      float64 // seconds
}

// RunConfig is an immutable snapshot of the loop configuration taken at
// run start. Config edits made while a run is active apply to the next
// run only.
type RunConfig struct {
	SampleRate     int
	StartFrequency float64
	MaxFrequency   float64
	StepSize       float64
	ToneDuration   float64
	IRDelay        float64
	PostSleep      float64
	FadeSeconds    float64
	MaxStepsPerRun int
	TriggerCommand []byte
}

// SnapshotRunConfig builds a RunConfig from the current configuration.
func SnapshotRunConfig(cfg config.Config) RunConfig {
	return RunConfig{
		SampleRate:     cfg.Sound.SampleRate,
		StartFrequency: cfg.Loop.StartFrequency,
		MaxFrequency:   cfg.Loop.MaxFrequency,
		StepSize:       cfg.Loop.Step,
		ToneDuration:   cfg.Loop.Duration,
		IRDelay:        cfg.Loop.IRDelay,
		PostSleep:      cfg.Loop.LoopSleep,
		FadeSeconds:    cfg.Sound.FadeSeconds,
		MaxStepsPerRun: cfg.Loop.MaxLoopsPerRun,
		TriggerCommand: cfg.IRCommand(),
	}
}

// TonePlayer streams one tone or chirp until done or cancelled.
type TonePlayer interface {
	Render(ctx context.Context, spec tone.Spec) error
}

// Actuator is the serial link surface the IR worker depends on.
type Actuator interface {
	Connected() bool
	Write(data []byte) error
}

// ProgressStore persists the sweep progress pointer between steps and
// across process restarts. *config.Store satisfies it.
type ProgressStore interface {
	CurrentFrequency() float64
	SetCurrentFrequency(hz float64)
	Save() error
}

// ActuationLog appends one entry per successful trigger. *irlog.Writer
// satisfies it.
type ActuationLog interface {
	Append(ts time.Time, frequency float64) error
}

// RunRecorder persists run history. *runstore.Store satisfies it; a nil
// recorder disables history.
type RunRecorder interface {
	BeginRun(ctx context.Context, mode string, startFrequency float64) (string, error)
	FinishRun(ctx context.Context, id, outcome string, endFrequency float64, stepsCompleted int) error
	RecordMissed(ctx context.Context, runID string, frequency float64, reason string) error
}

// MissedSet tracks frequencies whose IR actuation failed or was skipped
// during one run. Cleared at the start of each run, consumed by the
// missing-frequency analyzer.
type MissedSet struct {
	mu    sync.Mutex
	freqs map[float64]struct{}
}

// NewMissedSet returns an empty set.
func NewMissedSet() *MissedSet {
	return &MissedSet{freqs: make(map[float64]struct{})}
}

// Add records a missed frequency.
func (s *MissedSet) Add(hz float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freqs[hz] = struct{}{}
}

// Clear empties the set.
func (s *MissedSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freqs = make(map[float64]struct{})
}

// Len returns the number of recorded frequencies.
func (s *MissedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.freqs)
}

// Values returns the missed frequencies sorted ascending.
func (s *MissedSet) Values() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, 0, len(s.freqs))
	for f := range s.freqs {
		out = append(out, f)
	}
	sort.Float64s(out)
	return out
}

// History is a bounded ring of the most recently played frequencies,
// used for status reporting.
type History struct {
	mu  sync.Mutex
	buf []float64
	max int
}

// NewHistory returns a ring keeping the last max frequencies.
func NewHistory(max int) *History {
	return &History{max: max}
}

// Add appends a frequency, evicting the oldest past capacity.
func (h *History) Add(hz float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf = append(h.buf, hz)
	if len(h.buf) > h.max {
		h.buf = h.buf[len(h.buf)-h.max:]
	}
}

// Values returns the retained frequencies, oldest first.
func (h *History) Values() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]float64{}, h.buf...)
}

// trigger is the one-shot synchronization primitive between the two
// workers. Firing while a value is pending replaces it, mirroring the
// merge semantics of an already-set event: the consumer always acts on
// the latest frequency and a skipped one is recovered via the missed set.
type trigger struct {
	c chan float64
}

func newTrigger() *trigger {
	return &trigger{c: make(chan float64, 1)}
}

// close signals the IR worker that no further triggers will arrive.
// Pending triggers remain readable; only the loop worker may call this,
// and only after its last Fire.
func (t *trigger) close() {
	close(t.c)
}

// Fire hands the frequency to the IR worker without blocking. When the
// previous trigger is still pending it is displaced and returned so the
// caller can record it as missed; a displaced frequency must never be
// dropped silently.
func (t *trigger) Fire(hz float64) (displaced float64, ok bool) {
	for {
		select {
		case t.c <- hz:
			return displaced, ok
		default:
			select {
			case f := <-t.c:
				displaced, ok = f, true
			default:
			}
		}
	}
}

// sleepCtx sleeps for d in 100ms increments, returning false as soon as
// ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	const slice = 100 * time.Millisecond
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		if remaining > slice {
			remaining = slice
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(remaining):
		}
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
