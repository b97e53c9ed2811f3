package netio

import "time"

// SynchronousHandler is the default handler: it parks every decoded inbound
// message (and every observed error) on an internal queue so a caller can
// perform a bounded synchronous read against an otherwise event-driven
// session. This is how a request/response client does "write, then one
// bounded read" on top of the engine.
type SynchronousHandler struct {
	BaseHandler
	queue chan any
}

// NewSynchronousHandler creates a synchronous handler with the given queue
// capacity.
//
// Parameters:
//   - capacity: Pending message capacity; non-positive defaults to 16
//
// Returns:
//   - A new SynchronousHandler
func NewSynchronousHandler(capacity int) *SynchronousHandler {
	if capacity <= 0 {
		capacity = 16
	}

	return &SynchronousHandler{queue: make(chan any, capacity)}
}

// OnReceive implements Handler: the decoded message is queued for a pending
// or future Read. Messages beyond the queue capacity are dropped.
func (h *SynchronousHandler) OnReceive(_ *Session, message any) any {
	select {
	case h.queue <- message:
	default:
	}

	return nil
}

// OnException implements Handler: the error is queued so a synchronous
// reader observes it in order.
func (h *SynchronousHandler) OnException(_ *Session, err error) {
	select {
	case h.queue <- err:
	default:
	}
}

// Read blocks until one message or error arrives, bounded by the timeout.
//
// Parameters:
//   - timeout: Maximum wait; non-positive waits DefaultReadWait
//
// Returns:
//   - The next decoded message
//   - A *ReadError wrapping a queued error or reporting the timeout
func (h *SynchronousHandler) Read(timeout time.Duration) (any, error) {
	if timeout <= 0 {
		timeout = DefaultReadWait
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case item := <-h.queue:
		if err, ok := item.(error); ok {
			return nil, &ReadError{Reason: "session error", Err: err}
		}
		return item, nil
	case <-timer.C:
		return nil, &ReadError{Reason: "read timed out"}
	}
}

// Pending returns the number of queued messages and errors.
func (h *SynchronousHandler) Pending() int {
	return len(h.queue)
}

// DefaultReadWait bounds a synchronous read when the caller gives no
// timeout.
const DefaultReadWait = 5 * time.Second
