package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"stand/internal/actuator"
	"stand/internal/api"
	"stand/internal/config"
	"stand/internal/engine"
	"stand/internal/irlog"
	"stand/internal/logging"
	"stand/internal/runstore"
	"stand/internal/serialmon"
	"stand/internal/state"
	"stand/internal/tone"
)

// commandContext shares lazily built collaborators across subcommands.
type commandContext struct {
	configFlag *string

	storeOnce sync.Once
	store     *config.Store
	storeErr  error

	ctrlOnce sync.Once
	ctrl     *controller
	ctrlErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() (string, error) {
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			return config.ExpandHome(path), nil
		}
	}
	return config.DefaultPath()
}

// ensureStore opens just the configuration. Commands that never touch
// hardware or the run database stop here.
func (c *commandContext) ensureStore() (*config.Store, error) {
	c.storeOnce.Do(func() {
		path, err := c.configPath()
		if err != nil {
			c.storeErr = err
			return
		}
		store, err := config.Open(path)
		if errors.Is(err, config.ErrCorruptFile) {
			fmt.Fprintf(os.Stderr, "warn: %v\n", err)
			err = nil
		}
		if err != nil {
			c.storeErr = err
			return
		}
		c.store = store
	})
	return c.store, c.storeErr
}

// controller owns every runtime collaborator of the run commands.
type controller struct {
	store   *config.Store
	logger  *slog.Logger
	machine *state.Machine
	link    *actuator.Link
	tones   *tone.Engine
	manager *engine.Manager
	runs    *runstore.Store
	svc     *api.Service
	monitor *serialmon.Monitor
	lock    *flock.Flock
}

// ensureController assembles the full controller: config, logger, state
// machine, serial link, audio engine, run store, worker manager, and
// the service facade on top.
func (c *commandContext) ensureController() (*controller, error) {
	c.ctrlOnce.Do(func() {
		c.ctrl, c.ctrlErr = c.buildController()
	})
	return c.ctrl, c.ctrlErr
}

func (c *commandContext) buildController() (*controller, error) {
	store, err := c.ensureStore()
	if err != nil {
		return nil, err
	}
	cfg := store.Snapshot()

	dataDir := store.DataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dataDir, err)
	}

	logger, err := logging.New(logging.Options{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		FilePath: filepath.Join(dataDir, "stand-app.log"),
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	machine := state.New(state.WithEntryHook(func(st state.State) {
		logger.Info("state entered", logging.String(logging.FieldState, string(st)))
	}))

	link := actuator.NewLink(logger)
	tones := tone.NewEngine(tone.NewOutputDevice(), cfg.Sound.SampleRate, logger)

	runs, err := runstore.Open(dataDir)
	if err != nil {
		logger.Warn("run history unavailable", logging.Error(err))
		runs = nil
	}

	deps := engine.Deps{
		Progress: store,
		Tones:    tones,
		Link:     link,
		Log:      irlog.NewWriter(actuationLogPath(dataDir, cfg.Loop.LogFile)),
		Machine:  machine,
		Logger:   logger,
	}
	if runs != nil {
		deps.Recorder = runs
	}
	manager := engine.NewManager(deps)

	params := api.Params{
		Store:   store,
		Machine: machine,
		Manager: manager,
		Link:    link,
		Tones:   tones,
		Logger:  logger,
	}
	if runs != nil {
		params.Runs = runs
	}
	svc := api.NewService(params)

	monitor := serialmon.New(cfg.Serial.Port, logger,
		func(_ context.Context, device string) error {
			return link.Connect(device, cfg.Serial.Baudrate)
		},
		func(string) {
			_ = link.Disconnect()
		},
	)

	return &controller{
		store:   store,
		logger:  logger,
		machine: machine,
		link:    link,
		tones:   tones,
		manager: manager,
		runs:    runs,
		svc:     svc,
		monitor: monitor,
		lock:    flock.New(filepath.Join(dataDir, "stand.lock")),
	}, nil
}

// acquireLock guards against two stand processes driving the same
// hardware.
func (ctl *controller) acquireLock() error {
	ok, err := ctl.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another stand instance is already running")
	}
	return nil
}

func (ctl *controller) close() {
	ctl.monitor.Stop()
	_ = ctl.manager.Stop(false)
	_ = ctl.link.Disconnect()
	if ctl.runs != nil {
		_ = ctl.runs.Close()
	}
}

// actuationLogPath resolves the per-frequency log location; a bare file
// name lands in the data directory.
func actuationLogPath(dataDir, logFile string) string {
	if logFile == "" {
		logFile = "stand.log"
	}
	logFile = config.ExpandHome(logFile)
	if filepath.IsAbs(logFile) {
		return logFile
	}
	return filepath.Join(dataDir, logFile)
}
