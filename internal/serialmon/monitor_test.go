package serialmon

import (
	"context"
	"testing"

	"github.com/pilebones/go-udev/netlink"

	"stand/internal/logging"
)

func TestNew(t *testing.T) {
	t.Run("empty device returns nil", func(t *testing.T) {
		if m := New("   ", logging.NewNop(), nil, nil); m != nil {
			t.Error("expected nil monitor for empty device")
		}
	})

	t.Run("valid device creates monitor", func(t *testing.T) {
		m := New("/dev/ttyUSB0", logging.NewNop(), nil, nil)
		if m == nil {
			t.Fatal("expected non-nil monitor")
		}
		if m.device != "/dev/ttyUSB0" {
			t.Errorf("device = %q, want /dev/ttyUSB0", m.device)
		}
	})
}

func TestNilMonitorIsInert(t *testing.T) {
	var m *Monitor
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil monitor error = %v", err)
	}
	m.Stop()
	if m.Running() {
		t.Error("Running() = true for nil monitor")
	}
}

func TestStopBeforeStartIsSafe(t *testing.T) {
	m := New("/dev/ttyUSB0", logging.NewNop(), nil, nil)
	m.Stop()
	m.Stop()
	if m.Running() {
		t.Error("Running() = true after Stop on unstarted monitor")
	}
}

func TestMatcher(t *testing.T) {
	m := New("/dev/ttyUSB0", logging.NewNop(), nil, nil)
	matcher := m.matcher()

	cases := []struct {
		name  string
		event netlink.UEvent
		want  bool
	}{
		{
			name: "tty add matches",
			event: netlink.UEvent{
				Action: netlink.ADD,
				Env:    map[string]string{"SUBSYSTEM": "tty"},
			},
			want: true,
		},
		{
			name: "tty remove matches",
			event: netlink.UEvent{
				Action: netlink.REMOVE,
				Env:    map[string]string{"SUBSYSTEM": "tty"},
			},
			want: true,
		},
		{
			name: "block subsystem rejected",
			event: netlink.UEvent{
				Action: netlink.ADD,
				Env:    map[string]string{"SUBSYSTEM": "block"},
			},
			want: false,
		},
		{
			name: "change action rejected",
			event: netlink.UEvent{
				Action: netlink.CHANGE,
				Env:    map[string]string{"SUBSYSTEM": "tty"},
			},
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := matcher.Evaluate(tc.event); got != tc.want {
				t.Errorf("Evaluate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHandleEvent(t *testing.T) {
	t.Run("attach callback fires for configured device", func(t *testing.T) {
		var attachedDevice string
		m := New("/dev/ttyUSB0", logging.NewNop(), func(_ context.Context, device string) error {
			attachedDevice = device
			return nil
		}, nil)

		m.handleEvent(context.Background(), netlink.UEvent{
			Action: netlink.ADD,
			Env:    map[string]string{"SUBSYSTEM": "tty", "DEVNAME": "/dev/ttyUSB0"},
		})
		if attachedDevice != "/dev/ttyUSB0" {
			t.Errorf("attached device = %q, want /dev/ttyUSB0", attachedDevice)
		}
	})

	t.Run("detach callback fires on remove", func(t *testing.T) {
		var detachedDevice string
		m := New("/dev/ttyUSB0", logging.NewNop(), nil, func(device string) {
			detachedDevice = device
		})

		m.handleEvent(context.Background(), netlink.UEvent{
			Action: netlink.REMOVE,
			Env:    map[string]string{"SUBSYSTEM": "tty", "DEVNAME": "/dev/ttyUSB0"},
		})
		if detachedDevice != "/dev/ttyUSB0" {
			t.Errorf("detached device = %q, want /dev/ttyUSB0", detachedDevice)
		}
	})

	t.Run("other devices ignored", func(t *testing.T) {
		called := false
		m := New("/dev/ttyUSB0", logging.NewNop(), func(_ context.Context, _ string) error {
			called = true
			return nil
		}, nil)

		m.handleEvent(context.Background(), netlink.UEvent{
			Action: netlink.ADD,
			Env:    map[string]string{"SUBSYSTEM": "tty", "DEVNAME": "/dev/ttyUSB1"},
		})
		if called {
			t.Error("attach callback fired for non-configured device")
		}
	})

	t.Run("bare DEVNAME gets dev prefix", func(t *testing.T) {
		var attachedDevice string
		m := New("/dev/ttyUSB0", logging.NewNop(), func(_ context.Context, device string) error {
			attachedDevice = device
			return nil
		}, nil)

		m.handleEvent(context.Background(), netlink.UEvent{
			Action: netlink.ADD,
			Env:    map[string]string{"SUBSYSTEM": "tty", "DEVNAME": "ttyUSB0"},
		})
		if attachedDevice != "/dev/ttyUSB0" {
			t.Errorf("attached device = %q, want /dev/ttyUSB0", attachedDevice)
		}
	})

	t.Run("DEVPATH fallback", func(t *testing.T) {
		var attachedDevice string
		m := New("/dev/ttyUSB0", logging.NewNop(), func(_ context.Context, device string) error {
			attachedDevice = device
			return nil
		}, nil)

		m.handleEvent(context.Background(), netlink.UEvent{
			Action: netlink.ADD,
			Env: map[string]string{
				"SUBSYSTEM": "tty",
				"DEVPATH":   "/devices/pci0000:00/0000:00:14.0/usb1/1-2/1-2:1.0/ttyUSB0/tty/ttyUSB0",
			},
		})
		if attachedDevice != "/dev/ttyUSB0" {
			t.Errorf("attached device = %q, want /dev/ttyUSB0", attachedDevice)
		}
	})
}
