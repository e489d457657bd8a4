package network

import (
	"context"
	"fmt"
	"time"

	"github.com/cbodonnell/cabinet/pkg/clock"
	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/cbodonnell/cabinet/pkg/loop"
	"github.com/cbodonnell/cabinet/pkg/messages"
)

const (
	// DefaultIdleTimeout closes a socket that has gone quiet. The peer emits
	// time ticks while alive, so silence means it is gone.
	DefaultIdleTimeout = 4 * time.Second
	// DefaultReconnectDelay is the fixed pause between socket attempts.
	DefaultReconnectDelay = time.Second
)

// Sink consumes the lines delivered by the current transport.
type Sink interface {
	HandleLine(line string)
	// Disconnected is called whenever the current transport closes.
	Disconnected()
}

// Status describes the current transport.
type Status struct {
	Kind        string `json:"kind,omitempty"`
	ID          string `json:"id,omitempty"`
	Open        bool   `json:"open"`
	SerialOwned bool   `json:"serialOwned"`
	SerialPort  string `json:"serialPort,omitempty"`
}

// Supervisor keeps at most one transport current and reconnects forever.
// Every method must be called from the executor's goroutine; transport
// events are posted there and dropped unless they come from the current
// transport.
type Supervisor struct {
	exec      loop.Executor
	sink      Sink
	newSocket func() Transport
	newSerial func(port string) Transport
	listPorts PortLister
	logger    *log.Logger

	idleTimeout    time.Duration
	reconnectDelay time.Duration
	idle           *loop.SingleShot
	reconnect      *loop.SingleShot

	ctx         context.Context
	current     Transport
	currentOpen bool
	serialPort  string
	// serialOwned suppresses the socket once serial has been chosen
	serialOwned bool
	stopped     bool
}

type NewSupervisorOptions struct {
	Executor loop.Executor
	Clock    clock.Clock
	Sink     Sink
	// NewSocket creates a fresh socket transport for every attempt.
	NewSocket func() Transport
	// NewSerial creates a serial transport for a port. Nil when the
	// platform has no serial support.
	NewSerial func(port string) Transport
	ListPorts PortLister
	// SerialPort is the remembered device opened without prompting.
	SerialPort     string
	IdleTimeout    time.Duration
	ReconnectDelay time.Duration
}

func NewSupervisor(opts NewSupervisorOptions) *Supervisor {
	c := opts.Clock
	if c == nil {
		c = clock.New()
	}
	s := &Supervisor{
		exec:           opts.Executor,
		sink:           opts.Sink,
		newSocket:      opts.NewSocket,
		newSerial:      opts.NewSerial,
		listPorts:      opts.ListPorts,
		serialPort:     opts.SerialPort,
		idleTimeout:    opts.IdleTimeout,
		reconnectDelay: opts.ReconnectDelay,
		logger:         log.With("component", "supervisor"),
		ctx:            context.Background(),
	}
	if s.idleTimeout <= 0 {
		s.idleTimeout = DefaultIdleTimeout
	}
	if s.reconnectDelay <= 0 {
		s.reconnectDelay = DefaultReconnectDelay
	}
	s.idle = loop.NewSingleShot(c, opts.Executor)
	s.reconnect = loop.NewSingleShot(c, opts.Executor)
	return s
}

// Start opens the remembered serial device if it is present, otherwise
// connects the socket.
func (s *Supervisor) Start(ctx context.Context) {
	s.ctx = ctx
	s.stopped = false
	if s.serialGranted() {
		s.logger.Info("Remembered serial device %s is present", s.serialPort)
		s.openSerial(s.serialPort)
		return
	}
	s.connectSocket()
}

// Stop closes the current transport and cancels pending timers.
func (s *Supervisor) Stop() {
	s.stopped = true
	s.idle.Cancel()
	s.reconnect.Cancel()
	if s.current != nil {
		t := s.current
		s.current = nil
		s.currentOpen = false
		if err := t.Close(); err != nil {
			s.logger.Warn("Failed to close transport %s: %v", t.ID(), err)
		}
	}
	s.logger.Info("Supervisor stopped")
}

// RequestDevice is the user-initiated device request. The port becomes the
// remembered device and replaces whatever transport is current.
func (s *Supervisor) RequestDevice(port string) error {
	if s.newSerial == nil {
		return fmt.Errorf("serial links are not supported on this platform")
	}
	if port == "" {
		return fmt.Errorf("no serial port selected")
	}
	s.serialPort = port
	s.openSerial(port)
	return nil
}

// DeviceConnected handles the platform reporting that port appeared.
func (s *Supervisor) DeviceConnected(port string) {
	if s.stopped || s.newSerial == nil || port != s.serialPort {
		return
	}
	if s.current != nil && s.current.Kind() == KindSerial {
		return
	}
	s.logger.Info("Serial device %s connected", port)
	s.openSerial(port)
}

// Status reports the current transport.
func (s *Supervisor) Status() Status {
	status := Status{
		Open:        s.currentOpen,
		SerialOwned: s.serialOwned,
		SerialPort:  s.serialPort,
	}
	if s.current != nil {
		status.Kind = s.current.Kind().String()
		status.ID = s.current.ID()
	}
	return status
}

// Current returns the transport in the current slot, or nil.
func (s *Supervisor) Current() Transport {
	return s.current
}

func (s *Supervisor) serialGranted() bool {
	if s.newSerial == nil || s.serialPort == "" || s.listPorts == nil {
		return false
	}
	ports, err := s.listPorts()
	if err != nil {
		s.logger.Warn("Failed to list serial ports: %v", err)
		return false
	}
	for _, p := range ports {
		if p == s.serialPort {
			return true
		}
	}
	return false
}

func (s *Supervisor) connectSocket() {
	if s.stopped || s.serialOwned || s.newSocket == nil {
		return
	}
	s.adopt(s.newSocket())
}

func (s *Supervisor) openSerial(port string) {
	if s.stopped {
		return
	}
	s.reconnect.Cancel()
	s.idle.Cancel()
	if old := s.current; old != nil {
		s.logger.Info("Replacing %s transport %s with serial", old.Kind(), old.ID())
		s.current = nil
		s.currentOpen = false
		if err := old.Close(); err != nil {
			s.logger.Warn("Failed to close transport %s: %v", old.ID(), err)
		}
	}
	s.serialOwned = true
	s.adopt(s.newSerial(port))
}

// adopt makes t current and opens it. A construction failure is handled
// exactly like the transport closing.
func (s *Supervisor) adopt(t Transport) {
	s.current = t
	s.currentOpen = false
	s.logger.Debug("Opening %s transport %s", t.Kind(), t.ID())
	if err := t.Open(s.ctx, handler{s}); err != nil {
		s.logger.Error("Failed to open %s transport %s: %v", t.Kind(), t.ID(), err)
		s.handleClosed(t, err)
	}
}

func (s *Supervisor) handleOpen(t Transport) {
	if t != s.current {
		s.logger.Debug("Dropping open event from superseded transport %s", t.ID())
		return
	}
	s.currentOpen = true
	s.logger.Info("Connected via %s transport %s", t.Kind(), t.ID())

	switch t.Kind() {
	case KindSocket:
		s.armIdle(t)
	case KindSerial:
		if err := t.Write(messages.StateRequestProbe); err != nil {
			s.logger.Error("Failed to request state over serial: %v", err)
		}
	}
}

func (s *Supervisor) handleMessage(t Transport, line string) {
	if t != s.current {
		s.logger.Trace("Dropping message from superseded transport %s", t.ID())
		return
	}
	if t.Kind() == KindSocket {
		s.armIdle(t)
	}
	s.sink.HandleLine(line)
}

func (s *Supervisor) handleClosed(t Transport, err error) {
	if t != s.current {
		s.logger.Debug("Dropping close event from superseded transport %s", t.ID())
		return
	}
	s.current = nil
	s.currentOpen = false
	s.idle.Cancel()
	s.sink.Disconnected()

	if t.Kind() == KindSerial {
		s.logger.Warn("Serial transport %s closed: %v; waiting for the device to reconnect", t.ID(), err)
		return
	}
	if s.stopped {
		return
	}
	s.logger.Warn("Socket transport %s closed: %v; reconnecting in %s", t.ID(), err, s.reconnectDelay)
	s.reconnect.Arm(s.reconnectDelay, s.connectSocket)
}

func (s *Supervisor) armIdle(t Transport) {
	s.idle.Arm(s.idleTimeout, func() {
		if t != s.current {
			return
		}
		s.logger.Warn("No message from %s for %s, closing", t.ID(), s.idleTimeout)
		if err := t.Close(); err != nil {
			s.logger.Warn("Failed to close transport %s: %v", t.ID(), err)
		}
		s.handleClosed(t, &ErrIdleTimeout{})
	})
}

// handler posts transport events onto the executor.
type handler struct {
	s *Supervisor
}

func (h handler) OnOpen(t Transport) {
	h.s.exec.Post(func() { h.s.handleOpen(t) })
}

func (h handler) OnMessage(t Transport, line string) {
	h.s.exec.Post(func() { h.s.handleMessage(t, line) })
}

func (h handler) OnClosed(t Transport, err error) {
	h.s.exec.Post(func() { h.s.handleClosed(t, err) })
}
