package actuator

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"stand/internal/logging"
)

var (
	// ErrNotConnected reports an operation on a closed link.
	ErrNotConnected = errors.New("actuator: not connected")
	// ErrReadTimeout reports that no response line arrived in time.
	ErrReadTimeout = errors.New("actuator: read timed out")
)

// port is the subset of serial.Port the link depends on. Narrowing the
// interface keeps the fake in tests small.
type port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Link is a thread-safe serial connection to the trigger microcontroller.
type Link struct {
	logger *slog.Logger

	mu   sync.Mutex
	port port
	name string

	// open is swapped for a fake constructor in tests.
	open func(name string, baudrate int) (port, error)
}

// NewLink returns a disconnected link.
func NewLink(logger *slog.Logger) *Link {
	return &Link{
		logger: logging.NewComponentLogger(logger, "actuator"),
		open: func(name string, baudrate int) (port, error) {
			return serial.Open(name, &serial.Mode{BaudRate: baudrate})
		},
	}
}

// Connect opens the named port, replacing any existing connection.
func (l *Link) Connect(name string, baudrate int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.port != nil {
		_ = l.port.Close()
		l.port = nil
	}

	p, err := l.open(name, baudrate)
	if err != nil {
		l.logger.Warn("serial connect failed",
			logging.String("port", name),
			logging.Int("baudrate", baudrate),
			logging.Error(err),
		)
		return fmt.Errorf("open %s: %w", name, err)
	}

	l.port = p
	l.name = name
	l.logger.Info("serial connected",
		logging.String("port", name),
		logging.Int("baudrate", baudrate),
	)
	return nil
}

// Disconnect closes the connection if open.
func (l *Link) Disconnect() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.port == nil {
		return nil
	}
	err := l.port.Close()
	l.port = nil
	l.logger.Info("serial disconnected", logging.String("port", l.name))
	if err != nil {
		return fmt.Errorf("close %s: %w", l.name, err)
	}
	return nil
}

// Connected reports whether the link is open.
func (l *Link) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.port != nil
}

// PortName returns the connected port name, or "" when disconnected.
func (l *Link) PortName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.port == nil {
		return ""
	}
	return l.name
}

// Write sends data over the link. A short or failed write drops the
// connection so hotplug reconnection can re-establish it.
func (l *Link) Write(data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.port == nil {
		return ErrNotConnected
	}
	n, err := l.port.Write(data)
	if err == nil && n < len(data) {
		err = fmt.Errorf("short write: %d of %d bytes", n, len(data))
	}
	if err != nil {
		_ = l.port.Close()
		l.port = nil
		return fmt.Errorf("write %s: %w", l.name, err)
	}
	return nil
}

// ReadLine reads a single newline-terminated response, waiting at most
// timeout for it to complete.
func (l *Link) ReadLine(timeout time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.port == nil {
		return "", ErrNotConnected
	}
	if err := l.port.SetReadTimeout(timeout); err != nil {
		return "", fmt.Errorf("set read timeout: %w", err)
	}

	deadline := time.Now().Add(timeout)
	var line strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := l.port.Read(buf)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", l.name, err)
		}
		if n == 0 || time.Now().After(deadline) {
			// A zero-length read is the port's timeout signal.
			if line.Len() > 0 {
				return strings.TrimRight(line.String(), "\r"), nil
			}
			return "", ErrReadTimeout
		}
		if buf[0] == '\n' {
			return strings.TrimRight(line.String(), "\r"), nil
		}
		line.WriteByte(buf[0])
	}
}

// ListPorts enumerates serial devices present on the host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
