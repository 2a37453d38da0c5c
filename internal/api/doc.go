// Package api exposes the operator-facing command surface shared by the
// CLI commands. It owns the coupling between the lifecycle state
// machine, the worker manager, and the persisted configuration: every
// operation validates its transition first, then drives the workers,
// and reports a human-readable summary.
//
// # Operations
//
// Initialize: idle -> ready; opens the serial link, falling back across
// the configured baud rates. A dead serial port degrades to a warning
// because sweeps run without it (their frequencies land in the missed
// set).
//
// StartRun/Pause/Resume/StopRun: the bounded-run lifecycle. Pause and
// StopRun checkpoint sweep progress so the next run resumes exactly at
// the first unplayed frequency.
//
// Reset: rewinds the progress pointer to the start frequency and
// returns to idle from any state.
//
// Missing/RerunMissing: reconciliation between the expected frequency
// lattice and what the capture pipeline actually produced, with an
// optional replay run over just the gaps.
//
// PlayTone/PlaySweep/SerialTest: one-shot diagnostics outside the run
// lifecycle.
//
// All methods return errors instead of panicking; illegal lifecycle
// requests surface as *state.IllegalTransitionError.
package api
