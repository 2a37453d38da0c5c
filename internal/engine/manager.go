package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stand/internal/logging"
	"stand/internal/state"
)

// Run modes recorded in run history.
const (
	ModeSweep = "sweep"
	ModeRerun = "rerun"
)

// ErrJoinTimeout reports a worker that did not exit within the stop
// timeout. Resources may leak; the caller is told, not hung.
var ErrJoinTimeout = errors.New("engine: worker did not stop within timeout")

const defaultJoinTimeout = 5 * time.Second

// Deps are the collaborators a Manager drives. Recorder and Machine may
// be nil; history recording and lifecycle transitions are then skipped.
type Deps struct {
	Progress ProgressStore
	Tones    TonePlayer
	Link     Actuator
	Log      ActuationLog
	Recorder RunRecorder
	Machine  *state.Machine
	Logger   *slog.Logger
}

// Manager owns the loop/IR worker pair for the lifetime of a run. It is
// the only component allowed to start, cancel, or join the workers, and
// it guarantees at most one active run at a time.
type Manager struct {
	deps        Deps
	logger      *slog.Logger
	joinTimeout time.Duration

	missed  *MissedSet
	history *History

	mu          sync.Mutex
	cancel      context.CancelFunc
	loopDone    chan struct{}
	irDone      chan struct{}
	runID       string
	lastOutcome string
}

// NewManager constructs a Manager.
func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:        deps,
		logger:      logging.NewComponentLogger(deps.Logger, "engine"),
		joinTimeout: defaultJoinTimeout,
		missed:      NewMissedSet(),
		history:     NewHistory(10),
	}
}

// Start launches a run. A nil steps slice selects continuous sweep mode
// driven by the persisted progress pointer; a non-empty slice replays
// exactly those steps. Any prior run is stopped and joined first.
func (m *Manager) Start(cfg RunConfig, steps []Step, saveProgress bool) error {
	if steps != nil && len(steps) == 0 {
		return errors.New("engine: empty step sequence")
	}
	if err := m.Stop(true); err != nil {
		// A worker that refused to die must not be doubled up.
		return fmt.Errorf("stop previous run: %w", err)
	}

	mode := ModeSweep
	startFreq := m.deps.Progress.CurrentFrequency()
	if steps != nil {
		mode = ModeRerun
		startFreq = steps[0].Frequency
	}

	runID := ""
	if m.deps.Recorder != nil {
		id, err := m.deps.Recorder.BeginRun(context.Background(), mode, startFreq)
		if err != nil {
			m.logger.Warn("run history unavailable", logging.Error(err))
		} else {
			runID = id
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	trig := newTrigger()
	m.missed.Clear()

	// Both workers report misses through the same path so a frequency
	// lands in the missed set and run history no matter which side lost
	// it.
	recordMiss := func(freq float64, reason string) {
		m.missed.Add(freq)
		if runID == "" || m.deps.Recorder == nil {
			return
		}
		if err := m.deps.Recorder.RecordMissed(context.Background(), runID, freq, reason); err != nil {
			m.logger.Warn("missed-frequency record failed", logging.Frequency(freq), logging.Error(err))
		}
	}

	lw := &loopWorker{
		cfg:          cfg,
		steps:        steps,
		saveProgress: saveProgress,
		store:        m.deps.Progress,
		tones:        m.deps.Tones,
		trig:         trig,
		history:      m.history,
		logger:       logging.NewComponentLogger(m.deps.Logger, "loop"),
		superseded:   func(freq float64) { recordMiss(freq, reasonSuperseded) },
	}
	iw := &irWorker{
		cfg:    cfg,
		link:   m.deps.Link,
		log:    m.deps.Log,
		trig:   trig,
		logger: logging.NewComponentLogger(m.deps.Logger, "ir"),
		record: recordMiss,
	}

	loopDone := make(chan struct{})
	irDone := make(chan struct{})

	m.mu.Lock()
	m.cancel = cancel
	m.loopDone = loopDone
	m.irDone = irDone
	m.runID = runID
	m.mu.Unlock()

	m.logger.Info("run started",
		logging.String("mode", mode),
		logging.String(logging.FieldRunID, runID),
		logging.Frequency(startFreq),
	)

	go func() {
		defer close(loopDone)
		res := lw.run(runCtx)
		m.completeRun(res, cancel, irDone)
	}()
	go func() {
		defer close(irDone)
		iw.run(runCtx)
	}()

	return nil
}

// completeRun records the outcome once the loop worker exits and, for
// self-terminated runs, drives the state machine and releases the run
// context. Externally stopped runs leave the machine to the caller that
// requested the stop.
func (m *Manager) completeRun(res loopResult, cancel context.CancelFunc, irDone <-chan struct{}) {
	m.mu.Lock()
	runID := m.runID
	m.lastOutcome = res.outcome
	m.mu.Unlock()

	if runID != "" && m.deps.Recorder != nil {
		if err := m.deps.Recorder.FinishRun(context.Background(), runID, res.outcome, res.lastFrequency, res.steps); err != nil {
			m.logger.Warn("run history update failed", logging.Error(err))
		}
	}

	if m.deps.Machine != nil {
		var err error
		switch res.outcome {
		case OutcomePaused:
			err = m.deps.Machine.Pause()
		case OutcomeCompleted, OutcomeAborted:
			err = m.deps.Machine.Stop()
		}
		if err != nil {
			m.logger.Warn("lifecycle transition rejected", logging.Error(err))
		}
	}

	if res.outcome != OutcomeStopped {
		// The closed trigger channel lets the IR worker drain its final
		// shot and exit; only then is the run context released.
		select {
		case <-irDone:
		case <-time.After(m.joinTimeout):
			m.logger.Error("ir worker did not drain after run end")
		}
		cancel()
	}
}

// Stop cancels the active run, wakes both workers, and joins them with a
// bounded timeout. With save set, the progress pointer is flushed to
// disk. Stopping an idle manager is a no-op.
func (m *Manager) Stop(save bool) error {
	m.mu.Lock()
	cancel := m.cancel
	loopDone := m.loopDone
	irDone := m.irDone
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	deadline := time.After(m.joinTimeout)
	for _, done := range []chan struct{}{loopDone, irDone} {
		select {
		case <-done:
		case <-deadline:
			m.logger.Error("worker join timed out")
			return ErrJoinTimeout
		}
	}

	if save {
		if err := m.deps.Progress.Save(); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}
	}
	return nil
}

// Running reports whether a run is currently active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	loopDone := m.loopDone
	m.mu.Unlock()
	if loopDone == nil {
		return false
	}
	select {
	case <-loopDone:
		return false
	default:
		return true
	}
}

// Wait blocks until the active run ends on its own or ctx is cancelled.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	loopDone := m.loopDone
	irDone := m.irDone
	m.mu.Unlock()
	if loopDone == nil {
		return nil
	}
	for _, done := range []chan struct{}{loopDone, irDone} {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Missed returns the frequencies missed during the current or most
// recent run, sorted ascending.
func (m *Manager) Missed() []float64 {
	return m.missed.Values()
}

// History returns the most recently played frequencies, oldest first.
func (m *Manager) History() []float64 {
	return m.history.Values()
}

// LastOutcome returns how the most recent run ended, or "" before any
// run has finished.
func (m *Manager) LastOutcome() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOutcome
}
