package network

import "errors"

// ErrNotOpen is returned when writing to a transport that is not open.
type ErrNotOpen struct{}

func (e *ErrNotOpen) Error() string {
	return "transport is not open"
}

// ErrIdleTimeout is reported when a socket goes quiet for too long.
type ErrIdleTimeout struct{}

func (e *ErrIdleTimeout) Error() string {
	return "no message received before the idle timeout"
}

// ErrConnectionClosedByClient is reported when the transport was closed locally.
type ErrConnectionClosedByClient struct{}

func (e *ErrConnectionClosedByClient) Error() string {
	return "connection closed by client"
}

func IsNotOpen(err error) bool {
	var target *ErrNotOpen
	return errors.As(err, &target)
}
