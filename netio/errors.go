package netio

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition is returned when a session state transition is not
// allowed from the current phase (e.g. reopening a closed session).
var ErrIllegalTransition = errors.New("illegal session state transition")

// ErrIllegalKindTransition is returned when a session kind change is not
// allowed (the only valid transition is plain to WebSocket).
var ErrIllegalKindTransition = errors.New("illegal session kind transition")

// ErrHandshakeTimeout indicates the connect wait or TLS negotiation deadline
// elapsed. It is handled defensively inside the lifecycle path (logged, the
// session is force-closed) and is never returned to a direct caller.
var ErrHandshakeTimeout = errors.New("handshake deadline exceeded")

// TransportSetupError wraps a bind, connect, or start failure of the
// underlying transport.
type TransportSetupError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *TransportSetupError) Error() string {
	return fmt.Sprintf("transport setup failed during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportSetupError) Unwrap() error {
	return e.Err
}

// SendError wraps a write-path failure, including attempts to perform an
// operation that is invalid after a protocol upgrade.
type SendError struct {
	Reason string
	Err    error
}

// Error implements error.
func (e *SendError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("send failed: %s", e.Reason)
	}

	return fmt.Sprintf("send failed: %s: %v", e.Reason, e.Err)
}

// Unwrap returns the underlying error, which may be nil.
func (e *SendError) Unwrap() error {
	return e.Err
}

// ReadError wraps an underlying read failure or an explicit protocol
// validation failure, such as a rejected upgrade handshake.
type ReadError struct {
	Reason string
	Err    error
}

// Error implements error.
func (e *ReadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("read failed: %s", e.Reason)
	}

	return fmt.Sprintf("read failed: %s: %v", e.Reason, e.Err)
}

// Unwrap returns the underlying error, which may be nil.
func (e *ReadError) Unwrap() error {
	return e.Err
}
