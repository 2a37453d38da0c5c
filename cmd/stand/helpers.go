package main

import (
	"fmt"
	"strings"
)

// formatFrequencies renders a frequency list compactly, trimming
// trailing zeros so 1.25 and 2 read naturally side by side.
func formatFrequencies(freqs []float64) string {
	parts := make([]string, 0, len(freqs))
	for _, hz := range freqs {
		s := fmt.Sprintf("%.2f", hz)
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
