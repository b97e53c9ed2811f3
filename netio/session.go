package netio

import (
	"sync"
	"time"

	"github.com/cyberinferno/netengine/safemap"
)

// SessionKind tags the protocol a session is currently speaking. The only
// valid transition is PlainSession to WebSocketSession, performed once at the
// upgrade site; the session is then permanently treated under the new
// protocol.
type SessionKind int32

const (
	// PlainSession is the initial kind of every session.
	PlainSession SessionKind = iota
	// WebSocketSession marks a session that completed a protocol upgrade.
	WebSocketSession
)

// String returns a human-readable name for the session kind.
func (k SessionKind) String() string {
	switch k {
	case PlainSession:
		return "Plain"
	case WebSocketSession:
		return "WebSocket"
	default:
		return "Unknown"
	}
}

// Session is the runtime state of one established connection: the state
// machine, the optional SSL parser, an inbound byte buffer consulted by the
// message splitter, a protocol kind, and a free-form attribute map for upper
// layers. A session is created when a connection is accepted or established
// and lives until the transport is torn down.
type Session struct {
	id    uint64
	ctx   *SocketContext
	state *SessionState
	attrs *safemap.SafeMap[string, any]

	mu           sync.Mutex
	sslParser    SSLParser
	kind         SessionKind
	idleInterval time.Duration
	hasIdleOvr   bool
	readBuf      []byte
}

// NewSession creates a session bound to the given context, in PhaseInit and
// PlainSession kind.
//
// Parameters:
//   - id: The session identifier assigned by the transport
//   - ctx: The owning socket context
//
// Returns:
//   - A new Session
func NewSession(id uint64, ctx *SocketContext) *Session {
	return &Session{
		id:    id,
		ctx:   ctx,
		state: NewSessionState(),
		attrs: safemap.NewSafeMap[string, any](),
		kind:  PlainSession,
	}
}

// ID returns the session identifier.
func (s *Session) ID() uint64 {
	return s.id
}

// Context returns the owning socket context.
func (s *Session) Context() *SocketContext {
	return s.ctx
}

// State returns the session's state machine.
func (s *Session) State() *SessionState {
	return s.state
}

// Attributes returns the free-form attribute map used by upper layers.
func (s *Session) Attributes() *safemap.SafeMap[string, any] {
	return s.attrs
}

// Kind returns the session's current protocol kind.
func (s *Session) Kind() SessionKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

// Upgrade transitions the session kind. The only allowed transition is
// PlainSession to WebSocketSession; everything else is rejected.
//
// Parameters:
//   - to: The target kind
//
// Returns:
//   - ErrIllegalKindTransition if the transition is not allowed
func (s *Session) Upgrade(to SessionKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kind == PlainSession && to == WebSocketSession {
		s.kind = to
		return nil
	}

	return ErrIllegalKindTransition
}

// SSLParser returns the session's handshake parser, or nil for plaintext
// sessions.
func (s *Session) SSLParser() SSLParser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sslParser
}

// SetSSLParser attaches the handshake parser. The first non-nil parser wins;
// later calls are no-ops.
//
// Parameters:
//   - p: The parser to attach
func (s *Session) SetSSLParser(p SSLParser) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sslParser == nil {
		s.sslParser = p
	}
}

// IdleInterval returns the session's idle interval override when set, and
// the owning context's idle interval otherwise.
func (s *Session) IdleInterval() time.Duration {
	s.mu.Lock()
	if s.hasIdleOvr {
		d := s.idleInterval
		s.mu.Unlock()
		return d
	}
	s.mu.Unlock()

	return s.ctx.IdleInterval()
}

// SetIdleInterval overrides the context's idle interval for this session.
//
// Parameters:
//   - d: The idle interval; 0 disables IDLE dispatch for this session
func (s *Session) SetIdleInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idleInterval = d
	s.hasIdleOvr = true
}

// IsOpen reports whether the underlying transport is open.
func (s *Session) IsOpen() bool {
	t := s.ctx.Transport()
	return t != nil && t.IsOpen()
}

// Close closes the underlying transport and moves the session to its
// terminal phase. Safe to call multiple times.
//
// Returns:
//   - true if the close changed state, false if already closed
func (s *Session) Close() bool {
	s.state.MarkClosed()

	t := s.ctx.Transport()
	if t == nil {
		return false
	}

	return t.Close()
}

// FeedReadBuffer appends a copy of the given bytes to the session's inbound
// buffer. Called by the transport on every raw read; the buffer is consumed
// by the receive dispatch through the message splitter.
//
// Parameters:
//   - data: The bytes read from the transport
func (s *Session) FeedReadBuffer(data []byte) {
	if len(data) == 0 {
		return
	}

	s.mu.Lock()
	s.readBuf = append(s.readBuf, data...)
	s.mu.Unlock()
}

// ReadBufferLen returns the number of buffered inbound bytes.
func (s *Session) ReadBufferLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.readBuf)
}

// nextMessage consults the splitter and, when one complete message is
// buffered, removes and returns it.
func (s *Session) nextMessage(splitter MessageSplitter) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.readBuf) == 0 || splitter == nil {
		return nil, false
	}

	length, ok := splitter.Split(s.readBuf)
	if !ok || length <= 0 || length > len(s.readBuf) {
		return nil, false
	}

	msg := make([]byte, length)
	copy(msg, s.readBuf[:length])
	s.readBuf = s.readBuf[length:]
	return msg, true
}

// Send encodes a message through the filter chain, writes it to the
// transport, and fires a SENT event inline with the byte count as its
// attachment.
//
// Parameters:
//   - message: The outbound message; the encoded result must be []byte
//
// Returns:
//   - A *SendError on encode or write failure
func (s *Session) Send(message any) error {
	encoded, err := s.ctx.FilterChain().Encode(s, message)
	if err != nil {
		return &SendError{Reason: "encode", Err: err}
	}

	data, ok := encoded.([]byte)
	if !ok {
		return &SendError{Reason: "encoded message is not []byte"}
	}

	t := s.ctx.Transport()
	if t == nil || !t.IsOpen() {
		return &SendError{Reason: "session is not open"}
	}

	n, err := t.Write(data)
	if err != nil {
		return &SendError{Reason: "write", Err: err}
	}

	if trig := s.ctx.Trigger(); trig != nil {
		trig.Fire(s, EventSent, n, Inline)
	}

	return nil
}
