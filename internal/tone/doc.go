// Package tone generates and streams sine tones and linear chirps.
//
// Samples are produced block by block with phase carried as a running sum
// of the instantaneous angular frequency, so a sweep stays phase-continuous
// instead of clicking at block boundaries. A raised-cosine envelope shapes
// onset and offset. The render loop checks its context once per block,
// keeping cancellation latency under the 100ms responsiveness bound.
//
// The audio hardware is only touched through the Device interface; the
// oto-backed OutputDevice is the sole implementation outside tests.
package tone
