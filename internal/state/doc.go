// Package state implements the execution lifecycle of a sweep run.
//
// The machine has five states (idle, ready, running, paused, stopped) and
// a fixed transition table. Illegal triggers return an error and leave the
// state untouched; callers report them and continue. Entry hooks exist for
// user-facing logging only.
package state
