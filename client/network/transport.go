package network

import "context"

// Kind identifies the mechanism behind a transport.
type Kind int

const (
	KindSocket Kind = iota
	KindSerial
)

func (k Kind) String() string {
	switch k {
	case KindSocket:
		return "socket"
	case KindSerial:
		return "serial"
	default:
		return "unknown"
	}
}

// Transport is one connection attempt to the game controller. It moves
// through connecting, open and closed exactly once; reconnecting means
// creating a new Transport.
type Transport interface {
	// ID uniquely names this instance in logs.
	ID() string
	Kind() Kind
	// Open starts connecting in the background and returns immediately.
	// An error means the transport could not even be constructed.
	Open(ctx context.Context, handler Handler) error
	Write(b []byte) error
	Close() error
}

// Handler receives a transport's events on the transport's own goroutine.
// OnClosed is reported at most once, after which no other event follows.
type Handler interface {
	OnOpen(t Transport)
	OnMessage(t Transport, line string)
	OnClosed(t Transport, err error)
}
