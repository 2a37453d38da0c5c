package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrUnknownKey reports a dotted key outside the recognized set.
var ErrUnknownKey = errors.New("config: unknown key")

// Store provides lock-guarded access to the persisted configuration.
// Values read by a run are snapshotted at run start; edits made while a
// run is active only take effect on the next run.
type Store struct {
	mu   sync.RWMutex
	path string
	cfg  Config
}

// Open loads (or creates) the configuration at path and wraps it in a
// Store. The returned error may wrap ErrCorruptFile, in which case the
// store is still usable with defaults.
func Open(path string) (*Store, error) {
	cfg, err := Load(path)
	store := &Store{path: path, cfg: cfg}
	if err != nil && !errors.Is(err, ErrCorruptFile) {
		return nil, err
	}
	return store, err
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.cfg
	cfg.Serial.Baudrates = append([]int{}, s.cfg.Serial.Baudrates...)
	return cfg
}

// CurrentFrequency returns the persisted sweep progress pointer.
func (s *Store) CurrentFrequency() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Loop.CurrentFrequency
}

// SetCurrentFrequency updates the progress pointer in memory only;
// call Save to persist it.
func (s *Store) SetCurrentFrequency(hz float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Loop.CurrentFrequency = hz
}

// Update applies fn to the configuration under the write lock.
func (s *Store) Update(fn func(*Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cfg)
	s.cfg.normalize()
}

// Save writes the configuration to disk atomically. The lock is released
// before the file write so workers are never blocked behind I/O.
func (s *Store) Save() error {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()
	return write(s.path, cfg)
}

// DataDir returns the data directory with a leading ~ expanded.
func (s *Store) DataDir() string {
	s.mu.RLock()
	dir := s.cfg.DataDir
	s.mu.RUnlock()
	return ExpandHome(dir)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}

// Get returns the value of a recognized dotted key as display text.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.itemsLocked() {
		if item.Key == key {
			return item.Value, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Set parses and stores the value for a recognized dotted key. Invalid
// values are rejected here; only values already on disk fall back to
// defaults silently.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	setFloat := func(dst *float64, min float64) error {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		if f < min {
			return fmt.Errorf("config: %s must be >= %g", key, min)
		}
		*dst = f
		return nil
	}
	setInt := func(dst *int, min int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		if n < min {
			return fmt.Errorf("config: %s must be >= %d", key, min)
		}
		*dst = n
		return nil
	}

	c := &s.cfg
	switch key {
	case "log_level":
		c.LogLevel = value
	case "log_format":
		if value != "console" && value != "json" {
			return fmt.Errorf("config: log_format must be console or json")
		}
		c.LogFormat = value
	case "data_dir":
		c.DataDir = value
	case "serial.port":
		c.Serial.Port = value
	case "serial.baudrate":
		return setInt(&c.Serial.Baudrate, 1)
	case "commands.ir_engage":
		c.Commands.IREngage = unescape(value)
	case "sound.frequency":
		return setFloat(&c.Sound.Frequency, 0.001)
	case "sound.duration":
		return setFloat(&c.Sound.Duration, 0.001)
	case "sound.fade_seconds":
		return setFloat(&c.Sound.FadeSeconds, 0)
	case "sound.sample_rate":
		return setInt(&c.Sound.SampleRate, 1)
	case "loop.start_frequency":
		return setFloat(&c.Loop.StartFrequency, 0.001)
	case "loop.current_frequency":
		return setFloat(&c.Loop.CurrentFrequency, 0.001)
	case "loop.max_frequency":
		return setFloat(&c.Loop.MaxFrequency, 0.001)
	case "loop.step":
		return setFloat(&c.Loop.Step, 0.001)
	case "loop.duration":
		return setFloat(&c.Loop.Duration, 0.001)
	case "loop.ir_delay":
		return setFloat(&c.Loop.IRDelay, 0)
	case "loop.loop_sleep":
		return setFloat(&c.Loop.LoopSleep, 0)
	case "loop.max_loops_per_run":
		return setInt(&c.Loop.MaxLoopsPerRun, 1)
	case "loop.log_file":
		c.Loop.LogFile = value
	case "fetch.output_dir":
		c.Fetch.OutputDir = value
	case "fetch.tolerance":
		return setInt(&c.Fetch.Tolerance, 0)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// Item is one dotted key with its display value.
type Item struct {
	Key   string
	Value string
}

// Items lists every recognized key in stable order for `config show`.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsLocked()
}

func (s *Store) itemsLocked() []Item {
	c := &s.cfg
	baudrates := make([]string, len(c.Serial.Baudrates))
	for i, b := range c.Serial.Baudrates {
		baudrates[i] = strconv.Itoa(b)
	}
	items := []Item{
		{"log_level", c.LogLevel},
		{"log_format", c.LogFormat},
		{"data_dir", c.DataDir},
		{"serial.port", c.Serial.Port},
		{"serial.baudrate", strconv.Itoa(c.Serial.Baudrate)},
		{"serial.baudrates", strings.Join(baudrates, ",")},
		{"commands.ir_engage", escape(c.Commands.IREngage)},
		{"sound.frequency", formatFloat(c.Sound.Frequency)},
		{"sound.duration", formatFloat(c.Sound.Duration)},
		{"sound.fade_seconds", formatFloat(c.Sound.FadeSeconds)},
		{"sound.sample_rate", strconv.Itoa(c.Sound.SampleRate)},
		{"loop.start_frequency", formatFloat(c.Loop.StartFrequency)},
		{"loop.current_frequency", formatFloat(c.Loop.CurrentFrequency)},
		{"loop.max_frequency", formatFloat(c.Loop.MaxFrequency)},
		{"loop.step", formatFloat(c.Loop.Step)},
		{"loop.duration", formatFloat(c.Loop.Duration)},
		{"loop.ir_delay", formatFloat(c.Loop.IRDelay)},
		{"loop.loop_sleep", formatFloat(c.Loop.LoopSleep)},
		{"loop.max_loops_per_run", strconv.Itoa(c.Loop.MaxLoopsPerRun)},
		{"loop.log_file", c.Loop.LogFile},
		{"fetch.output_dir", c.Fetch.OutputDir},
		{"fetch.tolerance", strconv.Itoa(c.Fetch.Tolerance)},
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// escape/unescape let the CLI show and edit control bytes in the
// actuation command (`!r\n` on screen, a real newline on the wire).
func escape(s string) string {
	r := strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`)
	return r.Replace(s)
}

func unescape(s string) string {
	r := strings.NewReplacer(`\n`, "\n", `\r`, "\r", `\t`, "\t")
	return r.Replace(s)
}
