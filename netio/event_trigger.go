package netio

import (
	"errors"

	"github.com/cyberinferno/netengine/eventpool"
	"github.com/cyberinferno/netengine/logger"
)

// DispatchMode selects where a dispatched event executes.
type DispatchMode int

const (
	// Inline executes the dispatch synchronously on the calling goroutine,
	// i.e. on whatever goroutine observed the raw I/O occurrence.
	Inline DispatchMode = iota
	// Pooled submits the dispatch to the shared worker pool and returns
	// immediately, so a long-running handler never blocks the observer.
	Pooled
)

// EventTrigger translates transport-observed occurrences into guarded,
// possibly asynchronous handler invocations. One dispatch routine serves
// both modes; the per-kind guard and state-transition logic is identical in
// both except for one preserved divergence on CONNECT (see Fire).
//
// The worker pool is an explicit resource owned by the process, not hidden
// global state; pass the same pool to every trigger that should share it.
type EventTrigger struct {
	pool *eventpool.Pool
	log  logger.Logger
}

// NewEventTrigger creates a trigger dispatching pooled events on the given
// pool.
//
// Parameters:
//   - pool: The shared worker pool; nil disables pooled dispatch (pooled
//     firings are dropped)
//   - log: Logger for dropped and failed dispatches; nil for no logging
//
// Returns:
//   - A new EventTrigger
func NewEventTrigger(pool *eventpool.Pool, log logger.Logger) *EventTrigger {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &EventTrigger{pool: pool, log: log}
}

// Fire applies the event kind's guard and state mutation, then dispatches
// the event inline or via the worker pool.
//
// Guards and mutations per kind:
//   - Accepted: none.
//   - Connect: moves the session to PhaseConnected. The pooled mode
//     additionally clears the init marker; the inline mode leaves it
//     untouched. The asymmetry is preserved deliberately as observed
//     behavior, not unified.
//   - Receive: dispatched only when the session is open, the handshake is
//     complete, and no receive is in flight; the single-flight guard is
//     acquired here and released by the processing step. A firing that fails
//     the guard is dropped, not queued.
//   - Sent: marks the sent indicator; the attachment carries the byte count.
//   - Disconnect: moves the session to its terminal phase.
//   - Idle: dispatched only when the session's idle interval is positive.
//   - Exception: none; the attachment carries the causing error.
//
// Pooled dispatch against a closed (or absent) pool drops the occurrence
// silently.
//
// Parameters:
//   - session: The session the occurrence belongs to
//   - kind: The event kind
//   - attachment: Optional payload (byte count, error)
//   - mode: Inline or Pooled
func (t *EventTrigger) Fire(session *Session, kind EventKind, attachment any, mode DispatchMode) {
	if session == nil {
		return
	}

	switch kind {
	case EventConnect:
		if err := session.State().Transition(PhaseConnected); err != nil {
			t.log.Debug("connect on closed session ignored",
				logger.Field{Key: "session", Value: session.ID()})
			return
		}
		if mode == Pooled {
			session.State().ClearInit()
		}

	case EventReceive:
		if !session.IsOpen() || !HandshakeComplete(session) {
			return
		}
		// A receive already in flight consumes the buffered bytes; the
		// duplicate firing is dropped, not queued.
		if !session.State().BeginReceive() {
			return
		}

	case EventSent:
		session.State().MarkSent()

	case EventDisconnect:
		session.State().MarkClosed()

	case EventIdle:
		if session.IdleInterval() <= 0 {
			return
		}
	}

	event := acquireEvent(session, kind, attachment)

	if mode == Inline {
		t.process(event)
		return
	}

	if t.pool == nil || t.pool.IsClosed() {
		t.undoGuard(event)
		releaseEvent(event)
		return
	}

	if err := t.pool.Submit(func() { t.process(event) }); err != nil {
		if !errors.Is(err, eventpool.ErrPoolClosed) {
			t.log.Error("pooled dispatch failed",
				logger.Field{Key: "kind", Value: kind.String()},
				logger.Field{Key: "error", Value: err})
		}
		t.undoGuard(event)
		releaseEvent(event)
	}
}

// FireAccepted dispatches an ACCEPTED event.
func (t *EventTrigger) FireAccepted(session *Session, mode DispatchMode) {
	t.Fire(session, EventAccepted, nil, mode)
}

// FireConnect dispatches a CONNECT event.
func (t *EventTrigger) FireConnect(session *Session, mode DispatchMode) {
	t.Fire(session, EventConnect, nil, mode)
}

// FireReceive dispatches a RECEIVE event, subject to the single-flight and
// handshake guards.
func (t *EventTrigger) FireReceive(session *Session, mode DispatchMode) {
	t.Fire(session, EventReceive, nil, mode)
}

// FireSent dispatches a SENT event carrying the write attachment.
func (t *EventTrigger) FireSent(session *Session, attachment any, mode DispatchMode) {
	t.Fire(session, EventSent, attachment, mode)
}

// FireDisconnect dispatches a DISCONNECT event and closes the session state.
func (t *EventTrigger) FireDisconnect(session *Session, mode DispatchMode) {
	t.Fire(session, EventDisconnect, nil, mode)
}

// FireIdle dispatches an IDLE event when the idle interval is enabled.
func (t *EventTrigger) FireIdle(session *Session, mode DispatchMode) {
	t.Fire(session, EventIdle, nil, mode)
}

// FireException dispatches an EXCEPTION event carrying the causing error.
func (t *EventTrigger) FireException(session *Session, err error, mode DispatchMode) {
	t.Fire(session, EventException, err, mode)
}

// undoGuard releases the receive guard when a pooled dispatch is dropped
// after the guard was already acquired, so the next firing is not locked out
// forever.
func (t *EventTrigger) undoGuard(event *Event) {
	if event.Kind == EventReceive {
		event.Session.State().EndReceive()
	}
}
