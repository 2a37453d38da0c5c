package missing

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"

	"stand/internal/engine"
)

// ErrInvalidLattice reports unusable lattice parameters.
var ErrInvalidLattice = errors.New("missing: lattice step must be positive and start <= end")

// capturePattern matches a leading decimal frequency followed by a
// delimiter, e.g. "12.50-2026-03-14T10:30:00.mp4".
var capturePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)[-_.]`)

// Expected generates the closed-interval frequency lattice
// {start, start+step, ..., end}. The endpoint is kept despite float
// accumulation error by allowing half a step of tolerance, and each value
// is rounded to two decimals to match capture filenames.
func Expected(start, end, step float64) (map[float64]struct{}, error) {
	if step <= 0 || start > end {
		return nil, fmt.Errorf("%w: start=%g end=%g step=%g", ErrInvalidLattice, start, end, step)
	}

	out := make(map[float64]struct{})
	tolerance := step / 2
	for i := 0; ; i++ {
		freq := start + float64(i)*step
		if freq > end+tolerance {
			break
		}
		out[round2(freq)] = struct{}{}
	}
	return out, nil
}

// Captured extracts frequencies from filenames in the capture directory.
// A missing directory yields an empty set, not an error: no captures yet
// is a normal state.
func Captured(dir string) (map[float64]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return map[float64]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read capture directory: %w", err)
	}

	out := make(map[float64]struct{})
	for _, entry := range entries {
		match := capturePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		freq, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		out[round2(freq)] = struct{}{}
	}
	return out, nil
}

// Missing returns expected − captured, sorted ascending.
func Missing(expected, captured map[float64]struct{}) []float64 {
	out := make([]float64, 0, len(expected))
	for freq := range expected {
		if _, ok := captured[freq]; !ok {
			out = append(out, freq)
		}
	}
	sort.Float64s(out)
	return out
}

// Steps builds the bounded rerun sequence for the given frequencies.
// Timing comes from the current run configuration; the frequencies are
// taken verbatim so the Loop/IR protocol replays them unmodified.
func Steps(frequencies []float64, cfg engine.RunConfig) []engine.Step {
	steps := make([]engine.Step, 0, len(frequencies))
	for _, freq := range frequencies {
		steps = append(steps, engine.Step{
			Frequency:    freq,
			ToneDuration: cfg.ToneDuration,
			PostSleep:    cfg.PostSleep,
			IRDelay:      cfg.IRDelay,
		})
	}
	return steps
}

// Ranges compresses a sorted missing list into human-readable spans for
// reporting, e.g. "2.50-7.50" for consecutive lattice points.
func Ranges(frequencies []float64, step float64) []string {
	if len(frequencies) == 0 {
		return nil
	}

	var out []string
	start, prev := frequencies[0], frequencies[0]
	flush := func() {
		if start == prev {
			out = append(out, fmt.Sprintf("%.2f", start))
		} else {
			out = append(out, fmt.Sprintf("%.2f-%.2f", start, prev))
		}
	}
	for _, freq := range frequencies[1:] {
		if math.Abs(freq-prev-step) < 0.01 {
			prev = freq
			continue
		}
		flush()
		start, prev = freq, freq
	}
	flush()
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
