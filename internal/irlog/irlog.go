// Package irlog reads and appends the actuation log: one line per
// successful IR trigger, correlating physical trigger time with the
// frequency being played. The file is append-only; capture matching
// downstream depends on lines never being rewritten.
package irlog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// timeLayout matches the historical log format consumed by the capture
// pipeline. Do not change it.
const timeLayout = "2006-01-02 15:04:05"

// Entry is one recorded actuation.
type Entry struct {
	Timestamp time.Time
	Frequency float64
}

// Writer appends entries to the log file, creating it on first use.
type Writer struct {
	mu   sync.Mutex
	path string
}

// NewWriter returns a writer for the given log path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the log file location.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one `YYYY-MM-DD HH:MM:SS: <freq>` line. The file is
// opened per call so an unplugged USB drive or rotated file never wedges
// a long-running sweep.
func (w *Writer) Append(ts time.Time, frequency float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open actuation log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s: %.1f\n", ts.Format(timeLayout), frequency)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append actuation log: %w", err)
	}
	return nil
}

// Read parses every well-formed line of the log. Unparseable lines are
// skipped rather than failing the read; the log may be appended to while
// it is being read.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open actuation log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entry, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read actuation log: %w", err)
	}
	return entries, nil
}

// Frequencies returns the set of frequencies with at least one logged
// actuation.
func Frequencies(path string) (map[float64]struct{}, error) {
	entries, err := Read(path)
	if err != nil {
		return nil, err
	}
	set := make(map[float64]struct{}, len(entries))
	for _, e := range entries {
		set[e.Frequency] = struct{}{}
	}
	return set, nil
}

func parseLine(line string) (Entry, bool) {
	// Timestamp itself contains a colon, so split on the final one.
	idx := strings.LastIndex(line, ": ")
	if idx < 0 {
		return Entry{}, false
	}
	ts, err := time.ParseInLocation(timeLayout, line[:idx], time.Local)
	if err != nil {
		return Entry{}, false
	}
	freq, err := strconv.ParseFloat(strings.TrimSpace(line[idx+2:]), 64)
	if err != nil {
		return Entry{}, false
	}
	return Entry{Timestamp: ts, Frequency: freq}, true
}
