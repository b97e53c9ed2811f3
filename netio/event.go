package netio

import "sync"

// EventKind enumerates the occurrences the trigger can dispatch.
type EventKind int

const (
	// EventAccepted fires when a listening context accepts a connection.
	EventAccepted EventKind = iota
	// EventConnect fires once the connection is established.
	EventConnect
	// EventReceive fires when inbound data is ready for delivery.
	EventReceive
	// EventSent fires after an outbound write.
	EventSent
	// EventDisconnect fires when the connection is torn down. Terminal.
	EventDisconnect
	// EventIdle fires when the idle interval elapses without traffic.
	EventIdle
	// EventException fires when the transport observes an error.
	EventException
)

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventAccepted:
		return "Accepted"
	case EventConnect:
		return "Connect"
	case EventReceive:
		return "Receive"
	case EventSent:
		return "Sent"
	case EventDisconnect:
		return "Disconnect"
	case EventIdle:
		return "Idle"
	case EventException:
		return "Exception"
	default:
		return "Unknown"
	}
}

// Event is one dispatched occurrence: the session it happened on, its kind,
// and an optional attachment (bytes-sent count for SENT, the causing error
// for EXCEPTION). Events are ephemeral values consumed by exactly one
// dispatch and recycled through a pool.
type Event struct {
	Session    *Session
	Kind       EventKind
	Attachment any
}

var eventPool = sync.Pool{
	New: func() any { return &Event{} },
}

// acquireEvent takes an Event from the pool and fills it.
func acquireEvent(session *Session, kind EventKind, attachment any) *Event {
	e := eventPool.Get().(*Event)
	e.Session = session
	e.Kind = kind
	e.Attachment = attachment
	return e
}

// releaseEvent clears and recycles an Event after its single dispatch.
func releaseEvent(e *Event) {
	e.Session = nil
	e.Kind = 0
	e.Attachment = nil
	eventPool.Put(e)
}
