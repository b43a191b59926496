package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigInvalid means the configuration failed validation; nothing
	// was sent over the network.
	ErrConfigInvalid = errors.New("config invalid")
	// ErrSessionRequired means an outgoing call was attempted before the
	// session was authenticated.
	ErrSessionRequired = errors.New("session required")
	// ErrSocketNotConnected means an outgoing call was attempted with no
	// live transport.
	ErrSocketNotConnected = errors.New("socket not connected")
	// ErrDestinationRequired means an outgoing call was attempted with an
	// empty destination number.
	ErrDestinationRequired = errors.New("destination required")
)

// ServerError is an error reported by the signaling server inside an
// envelope. It is forwarded to the observer, never returned to callers.
type ServerError struct {
	Message string
	Code    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %s: %s", e.Code, e.Message)
}

// TransportError wraps a failure reported by the transport layer. Forwarded
// to the observer, never returned to callers.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
