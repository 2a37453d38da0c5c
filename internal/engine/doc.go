// Package engine executes sweep runs: the loop worker that steps through
// frequencies and plays tones, the IR worker that fires the camera
// trigger, and the manager that owns both.
//
// The two workers cooperate through a one-shot trigger channel and a
// shared cancellation context. The loop worker never begins iteration
// i+1 before iteration i's tone and post-sleep have finished, so at most
// one trigger is outstanding; IR actuation itself may lag behind the
// tone timeline when the configured delay is long, which is accepted.
// Every wait in either worker is revisited at 100ms granularity or
// better, so stop and pause take effect promptly.
package engine
