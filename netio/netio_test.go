package netio

import (
	"sync"
	"sync/atomic"
)

// fakeTransport is an in-memory Transport for exercising the engine without
// sockets.
type fakeTransport struct {
	open      atomic.Bool
	connected atomic.Bool

	mu      sync.Mutex
	written []byte
	writes  int
}

func newFakeTransport(open, connected bool) *fakeTransport {
	t := &fakeTransport{}
	t.open.Store(open)
	t.connected.Store(connected)
	return t
}

func (t *fakeTransport) IsOpen() bool      { return t.open.Load() }
func (t *fakeTransport) IsConnected() bool { return t.connected.Load() }

func (t *fakeTransport) Close() bool {
	if !t.open.Load() {
		return false
	}

	t.open.Store(false)
	t.connected.Store(false)
	return true
}

func (t *fakeTransport) Write(data []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.written = append(t.written, data...)
	t.writes++
	return len(data), nil
}

func (t *fakeTransport) bytesWritten() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]byte, len(t.written))
	copy(out, t.written)
	return out
}

// recordingHandler counts callback invocations and captures payloads.
type recordingHandler struct {
	BaseHandler

	mu          sync.Mutex
	accepted    int
	connects    int
	receives    int
	sents       int
	disconnects int
	idles       int
	exceptions  int
	messages    []any
	attachments []any
	errs        []error

	receiveReply any
	blockReceive chan struct{}
}

func (h *recordingHandler) OnAccepted(*Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.accepted++
}

func (h *recordingHandler) OnConnect(*Session) any {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connects++
	return nil
}

func (h *recordingHandler) OnReceive(_ *Session, message any) any {
	if h.blockReceive != nil {
		<-h.blockReceive
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.receives++
	h.messages = append(h.messages, message)
	return h.receiveReply
}

func (h *recordingHandler) OnSent(_ *Session, attachment any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sents++
	h.attachments = append(h.attachments, attachment)
}

func (h *recordingHandler) OnDisconnect(*Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnects++
}

func (h *recordingHandler) OnIdle(*Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.idles++
}

func (h *recordingHandler) OnException(_ *Session, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exceptions++
	h.errs = append(h.errs, err)
}

func (h *recordingHandler) counts() (accepted, connects, receives, sents, disconnects, idles, exceptions int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.accepted, h.connects, h.receives, h.sents, h.disconnects, h.idles, h.exceptions
}

func (h *recordingHandler) receivedMessages() []any {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]any, len(h.messages))
	copy(out, h.messages)
	return out
}

// fakeParser is a controllable SSLParser.
type fakeParser struct {
	done atomic.Bool
}

func (p *fakeParser) IsHandshakeComplete() bool { return p.done.Load() }

// fakeSSLManager records which role was requested.
type fakeSSLManager struct {
	parser      *fakeParser
	serverCalls int
	clientCalls int
}

func (m *fakeSSLManager) CreateServerParser(*Session) (SSLParser, error) {
	m.serverCalls++
	return m.parser, nil
}

func (m *fakeSSLManager) CreateClientParser(*Session) (SSLParser, error) {
	m.clientCalls++
	return m.parser, nil
}

// newTestSession builds a context bound to a fake transport, with the given
// handler installed and an inline-capable trigger.
func newTestSession(handler Handler, transport *fakeTransport) (*Session, *SocketContext, *EventTrigger) {
	ctx := NewSocketContext("127.0.0.1", 9000, 0)
	if handler != nil {
		ctx.SetHandler(handler)
	}

	trigger := NewEventTrigger(nil, nil)
	ctx.Bind(transport, trigger)
	return NewSession(1, ctx), ctx, trigger
}
