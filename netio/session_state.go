package netio

import "sync/atomic"

// Phase is the lifecycle phase of a session. Transitions are validated:
// PhaseInit may move to PhaseConnected, any phase may move to PhaseClosed,
// and PhaseClosed is terminal.
type Phase int32

const (
	// PhaseInit is the phase of a freshly created session.
	PhaseInit Phase = iota
	// PhaseConnected is the phase after the connection is established.
	PhaseConnected
	// PhaseClosed is the terminal phase. A closed session never reopens.
	PhaseClosed
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "Init"
	case PhaseConnected:
		return "Connected"
	case PhaseClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// SessionState is the per-session state machine. It replaces independent
// boolean guard flags with an enumerated phase whose transitions are
// validated, plus single-flight markers for in-flight receive dispatch and
// a sent indicator. All operations are safe for concurrent use.
//
// The init marker is tracked separately from the phase: the pooled CONNECT
// dispatch clears it while the inline CONNECT dispatch does not (a preserved
// behavioral divergence of the dispatch modes, see EventTrigger.Fire).
type SessionState struct {
	phase     atomic.Int32
	init      atomic.Bool
	receiving atomic.Bool
	sent      atomic.Bool
}

// NewSessionState creates a state machine in PhaseInit with the init marker
// set.
//
// Returns:
//   - A new SessionState ready for use
func NewSessionState() *SessionState {
	s := &SessionState{}
	s.phase.Store(int32(PhaseInit))
	s.init.Store(true)
	return s
}

// Phase returns the current lifecycle phase.
//
// Returns:
//   - The current Phase
func (s *SessionState) Phase() Phase {
	return Phase(s.phase.Load())
}

// Transition moves the state machine to the given phase. Valid transitions
// are Init->Connected and any->Closed; transitioning to the current phase is
// a no-op. Anything else is rejected.
//
// Parameters:
//   - to: The target phase
//
// Returns:
//   - ErrIllegalTransition if the transition is not allowed, nil otherwise
func (s *SessionState) Transition(to Phase) error {
	for {
		cur := s.phase.Load()
		if cur == int32(to) {
			return nil
		}

		switch {
		case to == PhaseClosed:
			// Close is monotonic and allowed from any phase.
		case cur == int32(PhaseInit) && to == PhaseConnected:
		default:
			return ErrIllegalTransition
		}

		if s.phase.CompareAndSwap(cur, int32(to)) {
			return nil
		}
	}
}

// MarkClosed moves the session to PhaseClosed. It always succeeds and is
// idempotent; a closed session stays closed.
func (s *SessionState) MarkClosed() {
	_ = s.Transition(PhaseClosed)
}

// IsClosed reports whether the session has reached the terminal phase.
func (s *SessionState) IsClosed() bool {
	return s.Phase() == PhaseClosed
}

// IsConnected reports whether the session is in PhaseConnected.
func (s *SessionState) IsConnected() bool {
	return s.Phase() == PhaseConnected
}

// IsInit reports whether the init marker is still set.
func (s *SessionState) IsInit() bool {
	return s.init.Load()
}

// ClearInit clears the init marker. Called by the pooled CONNECT dispatch.
func (s *SessionState) ClearInit() {
	s.init.Store(false)
}

// BeginReceive attempts to acquire the single-flight receive guard. At most
// one receive dispatch may hold the guard at a time; a firing that fails to
// acquire it is dropped, not queued.
//
// Returns:
//   - true if the guard was acquired, false if a receive is already in flight
func (s *SessionState) BeginReceive() bool {
	return s.receiving.CompareAndSwap(false, true)
}

// EndReceive releases the receive guard. Called by the event processing step
// once the receive dispatch completes.
func (s *SessionState) EndReceive() {
	s.receiving.Store(false)
}

// IsReceiving reports whether a receive dispatch is currently in flight.
func (s *SessionState) IsReceiving() bool {
	return s.receiving.Load()
}

// MarkSent records that at least one SENT dispatch has occurred.
func (s *SessionState) MarkSent() {
	s.sent.Store(true)
}

// HasSent reports whether a SENT dispatch has occurred on this session.
func (s *SessionState) HasSent() bool {
	return s.sent.Load()
}
