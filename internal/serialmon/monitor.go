// Package serialmon watches udev netlink events for the configured
// serial adapter so the actuator link can be reattached after an unplug
// without restarting a run. The netlink socket needs no udev rules and
// no elevated helper processes.
package serialmon

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"stand/internal/logging"
)

// Monitor listens for tty add/remove events matching one device node.
// A nil Monitor is inert; every method is safe to call on it.
type Monitor struct {
	logger   *slog.Logger
	device   string
	attached func(ctx context.Context, device string) error
	detached func(device string)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// New creates a monitor for the given device node (for example
// /dev/ttyUSB0). attached runs when the adapter appears, detached when
// it disappears; either may be nil. An empty device yields a nil
// monitor.
func New(device string, logger *slog.Logger, attached func(ctx context.Context, device string) error, detached func(device string)) *Monitor {
	device = strings.TrimSpace(device)
	if device == "" {
		return nil
	}
	return &Monitor{
		logger:   logging.NewComponentLogger(logger, "serial-monitor"),
		device:   device,
		attached: attached,
		detached: detached,
	}
}

// Start begins listening for udev netlink events. Failure to open the
// netlink socket is logged and ignored; hotplug tracking is a
// convenience, not a requirement.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("netlink socket unavailable; serial hotplug tracking disabled",
			logging.Error(err),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("serial monitor started", logging.String("device", m.device))
	return nil
}

// Stop shuts the monitor down. Safe to call repeatedly.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("serial monitor stopped")
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, m.matcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error", logging.Error(err))
		}
	}
}

// matcher selects tty subsystem add/remove events; the device filter
// happens in handleEvent because DEVNAME is not always present in the
// matcher environment.
func (m *Monitor) matcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "tty",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := deviceName(uevent)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}
	if devname != m.device {
		m.logger.Debug("ignoring event for other device",
			logging.String("device", devname),
		)
		return
	}

	switch uevent.Action {
	case netlink.ADD:
		m.logger.Info("serial adapter attached", logging.String("device", devname))
		if m.attached == nil {
			return
		}
		if err := m.attached(ctx, devname); err != nil {
			m.logger.Warn("serial reattach failed",
				logging.String("device", devname),
				logging.Error(err),
			)
		}
	case netlink.REMOVE:
		m.logger.Info("serial adapter detached", logging.String("device", devname))
		if m.detached != nil {
			m.detached(devname)
		}
	}
}

// deviceName resolves the device node from a uevent, falling back to
// the last DEVPATH element when DEVNAME is absent.
func deviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if strings.HasPrefix(devname, "/") {
			return devname
		}
		return "/dev/" + devname
	}

	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}
