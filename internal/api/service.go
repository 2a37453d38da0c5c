package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stand/internal/actuator"
	"stand/internal/config"
	"stand/internal/engine"
	"stand/internal/logging"
	"stand/internal/missing"
	"stand/internal/state"
	"stand/internal/tone"
)

// Missing-frequency sources.
const (
	SourceCaptures = "captures"
	SourceHistory  = "history"
)

// ErrUnknownSource reports an unrecognized missing-frequency source.
var ErrUnknownSource = errors.New("api: unknown source (want captures or history)")

// serialTestTimeout bounds the reply wait in SerialTest.
const serialTestTimeout = time.Second

// SerialLink is the slice of the actuator link the service drives.
type SerialLink interface {
	Connect(name string, baudrate int) error
	Disconnect() error
	Connected() bool
	PortName() string
	Write(data []byte) error
	ReadLine(timeout time.Duration) (string, error)
}

// RunHistory is the slice of the run store the service reads.
type RunHistory interface {
	LastRunMissed(ctx context.Context) ([]float64, error)
}

// Params collects the collaborators for NewService. Runs may be nil;
// the history source is then unavailable.
type Params struct {
	Store   *config.Store
	Machine *state.Machine
	Manager *engine.Manager
	Link    SerialLink
	Tones   engine.TonePlayer
	Runs    RunHistory
	Logger  *slog.Logger
}

// Service implements the operator command surface.
type Service struct {
	store   *config.Store
	machine *state.Machine
	manager *engine.Manager
	link    SerialLink
	tones   engine.TonePlayer
	runs    RunHistory
	logger  *slog.Logger
}

// NewService wires the command surface.
func NewService(p Params) *Service {
	return &Service{
		store:   p.Store,
		machine: p.Machine,
		manager: p.Manager,
		link:    p.Link,
		tones:   p.Tones,
		runs:    p.Runs,
		logger:  logging.NewComponentLogger(p.Logger, "api"),
	}
}

// Initialize moves the controller from idle to ready and opens the
// serial link. Serial failure is reported in the summary, not as an
// error: a sweep without the trigger still produces usable progress.
func (s *Service) Initialize(ctx context.Context) (string, error) {
	if err := s.machine.Initialize(); err != nil {
		return "", err
	}
	cfg := s.store.Snapshot()
	if err := s.connectSerial(ctx, cfg); err != nil {
		s.logger.Warn("serial port unavailable",
			logging.String("port", cfg.Serial.Port),
			logging.Error(err),
		)
		return fmt.Sprintf("initialized; serial port %s unavailable: %v", cfg.Serial.Port, err), nil
	}
	return fmt.Sprintf("initialized; serial connected on %s", s.link.PortName()), nil
}

// StartRun begins a bounded sweep run from the persisted checkpoint.
func (s *Service) StartRun(ctx context.Context) (string, error) {
	if err := s.machine.Start(); err != nil {
		return "", err
	}
	cfg := s.store.Snapshot()
	if err := s.manager.Start(engine.SnapshotRunConfig(cfg), nil, true); err != nil {
		_ = s.machine.Stop()
		return "", err
	}
	return fmt.Sprintf("run started at %.2f Hz (max %.2f Hz, step %.2f Hz, cap %d steps)",
		cfg.Loop.CurrentFrequency, cfg.Loop.MaxFrequency, cfg.Loop.Step, cfg.Loop.MaxLoopsPerRun), nil
}

// Pause halts the active run and checkpoints progress.
func (s *Service) Pause(ctx context.Context) (string, error) {
	if err := s.machine.Pause(); err != nil {
		return "", err
	}
	if err := s.manager.Stop(true); err != nil {
		return "", err
	}
	return fmt.Sprintf("paused; next frequency %.2f Hz", s.store.CurrentFrequency()), nil
}

// Resume continues a paused or stopped run from the checkpoint. The
// interrupted step is replayed, never skipped.
func (s *Service) Resume(ctx context.Context) (string, error) {
	if err := s.machine.Resume(); err != nil {
		return "", err
	}
	cfg := s.store.Snapshot()
	if err := s.manager.Start(engine.SnapshotRunConfig(cfg), nil, true); err != nil {
		_ = s.machine.Stop()
		return "", err
	}
	return fmt.Sprintf("resumed at %.2f Hz", cfg.Loop.CurrentFrequency), nil
}

// StopRun ends the active run, keeping the checkpoint for a later
// resume.
func (s *Service) StopRun(ctx context.Context) (string, error) {
	if err := s.machine.Stop(); err != nil {
		return "", err
	}
	if err := s.manager.Stop(true); err != nil {
		return "", err
	}
	return fmt.Sprintf("stopped; checkpoint %.2f Hz", s.store.CurrentFrequency()), nil
}

// Reset aborts any active run, rewinds the progress pointer to the
// start frequency, and returns to idle. Legal from every state.
func (s *Service) Reset(ctx context.Context) (string, error) {
	if err := s.manager.Stop(false); err != nil {
		return "", err
	}
	if err := s.machine.Reset(); err != nil {
		return "", err
	}
	s.store.Update(func(c *config.Config) {
		c.Loop.CurrentFrequency = c.Loop.StartFrequency
	})
	if err := s.store.Save(); err != nil {
		return "", err
	}
	return fmt.Sprintf("reset; checkpoint rewound to %.2f Hz", s.store.CurrentFrequency()), nil
}

// Status describes the controller for the status command.
type Status struct {
	State            state.State
	Running          bool
	PortName         string
	Connected        bool
	CurrentFrequency float64
	StartFrequency   float64
	MaxFrequency     float64
	StepSize         float64
	LastOutcome      string
	Missed           []float64
	History          []float64
}

// Status reports the current controller state.
func (s *Service) Status() Status {
	cfg := s.store.Snapshot()
	return Status{
		State:            s.machine.Current(),
		Running:          s.manager.Running(),
		PortName:         s.link.PortName(),
		Connected:        s.link.Connected(),
		CurrentFrequency: cfg.Loop.CurrentFrequency,
		StartFrequency:   cfg.Loop.StartFrequency,
		MaxFrequency:     cfg.Loop.MaxFrequency,
		StepSize:         cfg.Loop.Step,
		LastOutcome:      s.manager.LastOutcome(),
		Missed:           s.manager.Missed(),
		History:          s.manager.History(),
	}
}

// Transitions lists the lifecycle triggers legal from the current
// state.
func (s *Service) Transitions() []state.Trigger {
	return s.machine.Triggers(s.machine.Current())
}

// MissingReport lists frequencies the capture pipeline never recorded.
type MissingReport struct {
	Source      string
	Frequencies []float64
	Ranges      []string
}

// Missing reconciles the expected frequency lattice against a capture
// source. SourceCaptures scans the capture directory for per-frequency
// video files; SourceHistory reads the misses recorded during the most
// recent run.
func (s *Service) Missing(ctx context.Context, source string) (MissingReport, error) {
	cfg := s.store.Snapshot()

	var freqs []float64
	switch source {
	case SourceCaptures:
		expected, err := missing.Expected(cfg.Loop.StartFrequency, cfg.Loop.MaxFrequency, cfg.Loop.Step)
		if err != nil {
			return MissingReport{}, err
		}
		captured, err := missing.Captured(config.ExpandHome(cfg.Fetch.OutputDir))
		if err != nil {
			return MissingReport{}, err
		}
		freqs = missing.Missing(expected, captured)
	case SourceHistory:
		if s.runs == nil {
			return MissingReport{}, errors.New("api: run history unavailable")
		}
		var err error
		freqs, err = s.runs.LastRunMissed(ctx)
		if err != nil {
			return MissingReport{}, err
		}
	default:
		return MissingReport{}, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}

	return MissingReport{
		Source:      source,
		Frequencies: freqs,
		Ranges:      missing.Ranges(freqs, cfg.Loop.Step),
	}, nil
}

// RerunMissing replays exactly the missing frequencies from the given
// source as a bounded run. Replay runs never touch the sweep
// checkpoint.
func (s *Service) RerunMissing(ctx context.Context, source string) (string, error) {
	report, err := s.Missing(ctx, source)
	if err != nil {
		return "", err
	}
	if len(report.Frequencies) == 0 {
		return "no missing frequencies to replay", nil
	}

	switch s.machine.Current() {
	case state.Ready:
		err = s.machine.Start()
	case state.Paused, state.Stopped:
		err = s.machine.Resume()
	default:
		err = &state.IllegalTransitionError{From: s.machine.Current(), Trigger: state.TriggerStart}
	}
	if err != nil {
		return "", err
	}

	cfg := engine.SnapshotRunConfig(s.store.Snapshot())
	steps := missing.Steps(report.Frequencies, cfg)
	if err := s.manager.Start(cfg, steps, false); err != nil {
		_ = s.machine.Stop()
		return "", err
	}
	return fmt.Sprintf("replaying %d missing frequencies: %s",
		len(report.Frequencies), strings.Join(report.Ranges, ", ")), nil
}

// PlayTone renders one fixed tone outside the run lifecycle. Zero
// frequency or duration selects the configured sound defaults.
func (s *Service) PlayTone(ctx context.Context, frequency, duration float64) (string, error) {
	cfg := s.store.Snapshot()
	if frequency <= 0 {
		frequency = cfg.Sound.Frequency
	}
	if duration <= 0 {
		duration = cfg.Sound.Duration
	}
	spec := tone.Fixed(frequency, duration, cfg.Sound.FadeSeconds)
	if err := spec.Validate(); err != nil {
		return "", err
	}
	if err := s.tones.Render(ctx, spec); err != nil {
		return "", err
	}
	return fmt.Sprintf("played %.2f Hz for %.2fs", frequency, duration), nil
}

// PlaySweep renders one linear chirp outside the run lifecycle. Zero
// bounds select the configured lattice endpoints.
func (s *Service) PlaySweep(ctx context.Context, from, to, duration float64) (string, error) {
	cfg := s.store.Snapshot()
	if from <= 0 {
		from = cfg.Loop.StartFrequency
	}
	if to <= 0 {
		to = cfg.Loop.MaxFrequency
	}
	if duration <= 0 {
		duration = cfg.Sound.Duration
	}
	spec := tone.Spec{
		StartFrequency: from,
		EndFrequency:   to,
		Duration:       duration,
		FadeSeconds:    cfg.Sound.FadeSeconds,
	}
	if err := spec.Validate(); err != nil {
		return "", err
	}
	if err := s.tones.Render(ctx, spec); err != nil {
		return "", err
	}
	return fmt.Sprintf("swept %.2f Hz to %.2f Hz over %.2fs", from, to, duration), nil
}

// SerialTest sends the trigger command once and reports any reply.
func (s *Service) SerialTest(ctx context.Context) (string, error) {
	cfg := s.store.Snapshot()
	if !s.link.Connected() {
		if err := s.connectSerial(ctx, cfg); err != nil {
			return "", fmt.Errorf("connect %s: %w", cfg.Serial.Port, err)
		}
	}
	if err := s.link.Write(cfg.IRCommand()); err != nil {
		return "", err
	}
	reply, err := s.link.ReadLine(serialTestTimeout)
	if err != nil {
		if errors.Is(err, actuator.ErrReadTimeout) {
			return fmt.Sprintf("command sent on %s; no reply within %s", s.link.PortName(), serialTestTimeout), nil
		}
		return "", err
	}
	return fmt.Sprintf("command sent on %s; reply: %s", s.link.PortName(), strings.TrimSpace(reply)), nil
}

// connectSerial opens the configured port, trying the primary baud rate
// and then the fallback list.
func (s *Service) connectSerial(ctx context.Context, cfg config.Config) error {
	rates := make([]int, 0, 1+len(cfg.Serial.Baudrates))
	rates = append(rates, cfg.Serial.Baudrate)
	for _, rate := range cfg.Serial.Baudrates {
		if rate != cfg.Serial.Baudrate {
			rates = append(rates, rate)
		}
	}

	var lastErr error
	for _, rate := range rates {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.link.Connect(cfg.Serial.Port, rate); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
