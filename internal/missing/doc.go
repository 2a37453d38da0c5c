// Package missing reconciles the expected frequency lattice against what
// was actually captured, producing the bounded rerun sequence that
// recovers failed or uncaptured frequencies. The analyzer only reads
// filenames in the capture directory, never contents.
package missing
