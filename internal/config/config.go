package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ErrCorruptFile reports that the persisted configuration could not be
// parsed and defaults were substituted. Callers treat it as a warning.
var ErrCorruptFile = errors.New("config: corrupt file replaced with defaults")

// Serial describes the connection to the IR trigger microcontroller.
type Serial struct {
	Port      string `toml:"port"`
	Baudrate  int    `toml:"baudrate"`
	Baudrates []int  `toml:"baudrates"`
}

// Commands holds the byte sequences understood by the microcontroller.
type Commands struct {
	IREngage string `toml:"ir_engage"`
}

// Sound holds playback parameters shared by sweeps and one-shot tones.
type Sound struct {
	Frequency   float64 `toml:"frequency"`
	Duration    float64 `toml:"duration"`
	FadeSeconds float64 `toml:"fade_seconds"`
	SampleRate  int     `toml:"sample_rate"`
}

// Loop holds the sweep lattice and the persisted progress pointer.
type Loop struct {
	StartFrequency   float64 `toml:"start_frequency"`
	CurrentFrequency float64 `toml:"current_frequency"`
	MaxFrequency     float64 `toml:"max_frequency"`
	Step             float64 `toml:"step"`
	Duration         float64 `toml:"duration"`
	IRDelay          float64 `toml:"ir_delay"`
	LoopSleep        float64 `toml:"loop_sleep"`
	MaxLoopsPerRun   int     `toml:"max_loops_per_run"`
	LogFile          string  `toml:"log_file"`
}

// Fetch describes the external capture directory consumed by the
// missing-frequency analyzer.
type Fetch struct {
	OutputDir string `toml:"output_dir"`
	Tolerance int    `toml:"tolerance"`
}

// Config is the full persisted configuration.
type Config struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	DataDir   string `toml:"data_dir"`

	Serial   Serial   `toml:"serial"`
	Commands Commands `toml:"commands"`
	Sound    Sound    `toml:"sound"`
	Loop     Loop     `toml:"loop"`
	Fetch    Fetch    `toml:"fetch"`
}

// IRCommand returns the actuation byte sequence for the serial link.
func (c *Config) IRCommand() []byte {
	if c.Commands.IREngage == "" {
		return []byte(defaultIREngage)
	}
	return []byte(c.Commands.IREngage)
}

// DefaultPath returns the per-user configuration file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "stand", "config.toml"), nil
}

// Load reads the configuration at path. A missing file is created from
// defaults; an unparseable file yields defaults and ErrCorruptFile.
// Out-of-range values are clamped to defaults in both cases.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if werr := write(path, cfg); werr != nil {
			return cfg, fmt.Errorf("create default config: %w", werr)
		}
		return cfg, nil
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if derr := toml.Unmarshal(data, &cfg); derr != nil {
		cfg = Default()
		return cfg, fmt.Errorf("%w: %v", ErrCorruptFile, derr)
	}

	cfg.normalize()
	return cfg, nil
}

func write(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure config directory: %w", err)
		}
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
