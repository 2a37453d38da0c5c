package state

import (
	"fmt"
	"sort"
	"sync"
)

// State is one of the five execution lifecycle states.
type State string

const (
	Idle    State = "idle"
	Ready   State = "ready"
	Running State = "running"
	Paused  State = "paused"
	Stopped State = "stopped"
)

// Trigger names a requested transition.
type Trigger string

const (
	TriggerInitialize Trigger = "initialize"
	TriggerStart      Trigger = "start"
	TriggerPause      Trigger = "pause"
	TriggerResume     Trigger = "resume"
	TriggerStop       Trigger = "stop"
	TriggerReset      Trigger = "reset"
)

// IllegalTransitionError reports a trigger that is not legal from the
// current state. It is expected during normal operation (double stop,
// resume while running) and must never abort the caller.
type IllegalTransitionError struct {
	From    State
	Trigger Trigger
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("state: trigger %q not allowed from %q", e.Trigger, e.From)
}

// transitions maps trigger -> legal source states -> destination.
// TriggerReset is legal from every state and handled separately.
var transitions = map[Trigger]map[State]State{
	TriggerInitialize: {Idle: Ready},
	TriggerStart:      {Ready: Running},
	TriggerPause:      {Running: Paused},
	TriggerResume:     {Paused: Running, Stopped: Running},
	TriggerStop:       {Running: Stopped, Paused: Stopped},
}

// Machine is a thread-safe execution state machine.
type Machine struct {
	mu      sync.Mutex
	state   State
	onEnter func(State)
}

// Option configures a Machine.
type Option func(*Machine)

// WithEntryHook registers a callback invoked (outside the lock) each time
// a new state is entered. Hooks are for logging only.
func WithEntryHook(hook func(State)) Option {
	return func(m *Machine) { m.onEnter = hook }
}

// New returns a Machine in the Idle state.
func New(opts ...Option) *Machine {
	m := &Machine{state: Idle}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Fire applies a trigger, returning an IllegalTransitionError if the
// transition is not in the table. The state is unchanged on error.
func (m *Machine) Fire(trigger Trigger) error {
	m.mu.Lock()
	from := m.state
	var to State
	if trigger == TriggerReset {
		to = Idle
	} else {
		dests, ok := transitions[trigger]
		if !ok {
			m.mu.Unlock()
			return &IllegalTransitionError{From: from, Trigger: trigger}
		}
		to, ok = dests[from]
		if !ok {
			m.mu.Unlock()
			return &IllegalTransitionError{From: from, Trigger: trigger}
		}
	}
	m.state = to
	hook := m.onEnter
	m.mu.Unlock()

	if hook != nil {
		hook(to)
	}
	return nil
}

// Initialize moves Idle -> Ready.
func (m *Machine) Initialize() error { return m.Fire(TriggerInitialize) }

// Start moves Ready -> Running.
func (m *Machine) Start() error { return m.Fire(TriggerStart) }

// Pause moves Running -> Paused.
func (m *Machine) Pause() error { return m.Fire(TriggerPause) }

// Resume moves Paused or Stopped -> Running.
func (m *Machine) Resume() error { return m.Fire(TriggerResume) }

// Stop moves Running or Paused -> Stopped.
func (m *Machine) Stop() error { return m.Fire(TriggerStop) }

// Reset moves any state -> Idle.
func (m *Machine) Reset() error { return m.Fire(TriggerReset) }

// Triggers lists the triggers legal from the given state, sorted by name.
func (m *Machine) Triggers(from State) []Trigger {
	out := []Trigger{TriggerReset}
	for trigger, dests := range transitions {
		if _, ok := dests[from]; ok {
			out = append(out, trigger)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// States lists every state in lifecycle order.
func States() []State {
	return []State{Idle, Ready, Running, Paused, Stopped}
}
