package tone

import (
	"errors"
	"math"
)

// Errors returned by Spec validation.
var (
	ErrInvalidFrequency  = errors.New("tone: frequency must be positive")
	ErrInvalidDuration   = errors.New("tone: duration must be positive")
	ErrInvalidSampleRate = errors.New("tone: sample rate must be positive")
)

// defaultAmplitude leaves headroom against clipping on consumer DACs.
const defaultAmplitude = 0.8

// Spec describes one tone or linear chirp. Equal start and end
// frequencies produce a fixed tone.
type Spec struct {
	StartFrequency float64 // Hz
	EndFrequency   float64 // Hz
	Duration       float64 // seconds
	FadeSeconds    float64 // raised-cosine fade at onset and offset
	Amplitude      float64 // 0 selects the default
}

// Fixed returns a Spec for a constant-frequency tone.
func Fixed(frequency, duration, fadeSeconds float64) Spec {
	return Spec{
		StartFrequency: frequency,
		EndFrequency:   frequency,
		Duration:       duration,
		FadeSeconds:    fadeSeconds,
	}
}

// Validate checks that the Spec can be rendered.
func (s Spec) Validate() error {
	if s.StartFrequency <= 0 || s.EndFrequency <= 0 {
		return ErrInvalidFrequency
	}
	if s.Duration <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// generator produces samples for one Spec. Not safe for concurrent use;
// each render owns its generator.
type generator struct {
	spec        Spec
	sampleRate  int
	total       int
	fadeSamples int
	amplitude   float64

	index int
	phase float64
}

func newGenerator(spec Spec, sampleRate int) *generator {
	total := int(math.Round(spec.Duration * float64(sampleRate)))
	if total < 1 {
		total = 1
	}

	// Fade length is clamped to half the signal so in and out never overlap.
	fadeSamples := int(spec.FadeSeconds * float64(sampleRate))
	if fadeSamples > total/2 {
		fadeSamples = total / 2
	}

	amplitude := spec.Amplitude
	if amplitude <= 0 || amplitude > 1 {
		amplitude = defaultAmplitude
	}

	return &generator{
		spec:        spec,
		sampleRate:  sampleRate,
		total:       total,
		fadeSamples: fadeSamples,
		amplitude:   amplitude,
	}
}

// remaining reports how many samples are left to produce.
func (g *generator) remaining() int {
	return g.total - g.index
}

// next fills dst with up to len(dst) samples and returns how many were
// written. Zero means the signal is complete.
func (g *generator) next(dst []float32) int {
	n := 0
	for n < len(dst) && g.index < g.total {
		f := g.instantFrequency()
		// Phase is the running sum of instantaneous angular frequency.
		// The closed-form chirp phase is equivalent on paper but not
		// sample-for-sample, and the difference is audible as a click.
		g.phase += 2 * math.Pi * f / float64(g.sampleRate)
		sample := g.amplitude * math.Sin(g.phase) * g.envelope(g.index)
		dst[n] = float32(sample)
		g.index++
		n++
	}
	return n
}

// instantFrequency interpolates linearly from start to end over the
// total duration.
func (g *generator) instantFrequency() float64 {
	if g.total <= 1 || g.spec.EndFrequency == g.spec.StartFrequency {
		return g.spec.StartFrequency
	}
	frac := float64(g.index) / float64(g.total-1)
	return g.spec.StartFrequency + (g.spec.EndFrequency-g.spec.StartFrequency)*frac
}

// envelope returns the raised-cosine fade factor for sample index i.
func (g *generator) envelope(i int) float64 {
	if g.fadeSamples <= 0 {
		return 1
	}
	if i < g.fadeSamples {
		return 0.5 * (1 - math.Cos(math.Pi*float64(i)/float64(g.fadeSamples)))
	}
	if tail := g.total - 1 - i; tail < g.fadeSamples {
		return 0.5 * (1 - math.Cos(math.Pi*float64(tail)/float64(g.fadeSamples)))
	}
	return 1
}
