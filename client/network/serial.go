package network

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/cbodonnell/cabinet/pkg/messages"
	"github.com/google/uuid"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the game controller firmware.
	DefaultBaudRate = 115200

	serialReadBufferSize = 256
)

// PortLister enumerates the serial ports currently present.
type PortLister func() ([]string, error)

// ListSerialPorts lists the ports known to the operating system.
func ListSerialPorts() ([]string, error) {
	return serial.GetPortsList()
}

// SerialTransport is a direct serial link to the game controller.
type SerialTransport struct {
	id       string
	portName string
	mode     *serial.Mode
	logger   *log.Logger

	mu     sync.Mutex
	port   serial.Port
	opened bool
	closed bool
}

func NewSerialTransport(portName string, baudRate int) *SerialTransport {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	id := uuid.NewString()
	return &SerialTransport{
		id:       id,
		portName: portName,
		mode:     &serial.Mode{BaudRate: baudRate},
		logger:   log.With("transport", id).With("kind", KindSerial.String()),
	}
}

func (t *SerialTransport) ID() string {
	return t.id
}

func (t *SerialTransport) Kind() Kind {
	return KindSerial
}

// Open opens the port in the background and starts reading.
func (t *SerialTransport) Open(ctx context.Context, handler Handler) error {
	if t.portName == "" {
		return fmt.Errorf("no serial port selected")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.opened || t.closed {
		return fmt.Errorf("transport %s was already opened", t.id)
	}
	t.opened = true

	go t.run(ctx, handler)
	return nil
}

func (t *SerialTransport) run(ctx context.Context, handler Handler) {
	t.logger.Info("Opening serial port %s at %d baud", t.portName, t.mode.BaudRate)
	port, err := serial.Open(t.portName, t.mode)
	if err != nil {
		handler.OnClosed(t, fmt.Errorf("failed to open serial port %s: %w", t.portName, err))
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		port.Close()
		handler.OnClosed(t, &ErrConnectionClosedByClient{})
		return
	}
	t.port = port
	t.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		t.Close()
	})
	defer stop()

	handler.OnOpen(t)

	err = readLines(port, t, handler)
	if t.isClosed() {
		err = &ErrConnectionClosedByClient{}
	}
	handler.OnClosed(t, err)
}

// readLines frames r into lines and reports each one in arrival order
// until r fails. It always returns a non-nil error.
func readLines(r io.Reader, t Transport, handler Handler) error {
	var lines messages.LineBuffer
	buf := make([]byte, serialReadBufferSize)
	for {
		n, err := r.Read(buf)
		for _, line := range lines.Feed(buf[:n]) {
			handler.OnMessage(t, line)
		}
		if err != nil {
			return err
		}
		if n == 0 {
			// a blocking read without a timeout only returns nothing at end of stream
			return io.EOF
		}
	}
}

func (t *SerialTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *SerialTransport) Write(b []byte) error {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()
	if port == nil {
		return &ErrNotOpen{}
	}
	if _, err := port.Write(b); err != nil {
		return fmt.Errorf("failed to write to serial port %s: %w", t.portName, err)
	}
	return nil
}

func (t *SerialTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.port == nil {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", t.portName, err)
	}
	return nil
}
