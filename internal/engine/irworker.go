package engine

import (
	"context"
	"log/slog"
	"time"

	"stand/internal/logging"
)

// Missed-frequency reasons recorded in run history.
const (
	reasonWriteFailed  = "write failed"
	reasonDisconnected = "disconnected"
	reasonSuperseded   = "superseded"
	reasonCancelled    = "cancelled"
)

// irWorker waits for the per-iteration trigger and fires the camera IR
// command after the configured delay. Actuator failures are recorded per
// frequency and never abort the sweep; a trigger the worker accepted but
// could not service is recorded the same way, so every frequency ends up
// either in the actuation log or in the missed set.
type irWorker struct {
	cfg    RunConfig
	link   Actuator
	log    ActuationLog
	trig   *trigger
	logger *slog.Logger

	// record adds a frequency to the missed set and run history.
	record func(frequency float64, reason string)
}

// run consumes triggers until the loop worker closes the channel or the
// run is cancelled. The wait blocks rather than polls; either signal
// wakes it even when no trigger is pending.
func (w *irWorker) run(ctx context.Context) {
	for {
		var freq float64
		select {
		case <-ctx.Done():
			w.drainPending()
			return
		case f, ok := <-w.trig.c:
			if !ok {
				return
			}
			freq = f
		}

		if !sleepCtx(ctx, secondsToDuration(w.cfg.IRDelay)) {
			w.record(freq, reasonCancelled)
			w.logger.Warn("ir cancelled during delay", logging.Frequency(freq))
			w.drainPending()
			return
		}

		if !w.link.Connected() {
			w.record(freq, reasonDisconnected)
			w.logger.Warn("ir skipped; actuator not connected", logging.Frequency(freq))
			continue
		}

		if err := w.link.Write(w.cfg.TriggerCommand); err != nil {
			w.record(freq, reasonWriteFailed)
			w.logger.Warn("ir trigger failed", logging.Frequency(freq), logging.Error(err))
			continue
		}

		if err := w.log.Append(time.Now(), freq); err != nil {
			// The trigger already fired; losing the log line is reported
			// but the frequency is not treated as missed.
			w.logger.Warn("actuation log append failed", logging.Frequency(freq), logging.Error(err))
		}
		w.logger.Info("ir sent", logging.Frequency(freq))
	}
}

// drainPending records a trigger that was raised but never serviced
// before the worker exits on cancellation.
func (w *irWorker) drainPending() {
	select {
	case f, ok := <-w.trig.c:
		if ok {
			w.record(f, reasonCancelled)
			w.logger.Warn("ir cancelled before firing", logging.Frequency(f))
		}
	default:
	}
}
