package tone

import (
	"context"
	"fmt"
	"log/slog"

	"stand/internal/logging"
)

// blockSize keeps cancellation latency well under 100ms: 2048 samples is
// about 46ms at 44.1kHz.
const blockSize = 2048

// Device consumes sample blocks until the channel closes or the context
// is cancelled. Implementations must honor ctx promptly rather than
// draining at their leisure.
type Device interface {
	Play(ctx context.Context, sampleRate int, blocks <-chan []float32) error
}

// Engine renders Specs to a Device. It is the only component that drives
// audio output.
type Engine struct {
	device     Device
	sampleRate int
	logger     *slog.Logger
}

// NewEngine constructs an Engine for the given device and sample rate.
func NewEngine(device Device, sampleRate int, logger *slog.Logger) *Engine {
	return &Engine{
		device:     device,
		sampleRate: sampleRate,
		logger:     logging.NewComponentLogger(logger, "tone"),
	}
}

// SampleRate returns the engine's output sample rate.
func (e *Engine) SampleRate() int {
	return e.sampleRate
}

// Render streams the spec to the device, blocking until the signal
// completes or ctx is cancelled. On cancellation it returns ctx.Err()
// within one block of playback.
func (e *Engine) Render(ctx context.Context, spec Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if e.sampleRate <= 0 {
		return ErrInvalidSampleRate
	}

	e.logger.Debug("rendering",
		logging.Float64("start_hz", spec.StartFrequency),
		logging.Float64("end_hz", spec.EndFrequency),
		logging.Float64("duration_s", spec.Duration),
	)

	blocks := make(chan []float32)
	playErr := make(chan error, 1)
	playDone := make(chan struct{})
	go func() {
		playErr <- e.device.Play(ctx, e.sampleRate, blocks)
		close(playDone)
	}()

	g := newGenerator(spec, e.sampleRate)
	cancelled := false
produce:
	for g.remaining() > 0 {
		buf := make([]float32, blockSize)
		n := g.next(buf)
		if n == 0 {
			break
		}
		select {
		case blocks <- buf[:n]:
		case <-playDone:
			// Device bailed out early; its error surfaces below.
			break produce
		case <-ctx.Done():
			cancelled = true
			break produce
		}
	}
	close(blocks)

	err := <-playErr
	if cancelled || ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("tone: playback: %w", err)
	}
	return nil
}
