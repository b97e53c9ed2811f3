// Package netio is the core of the engine: the socket context owning
// configuration and lifecycle, the per-connection session and its state
// machine, the event trigger with inline and pooled dispatch, the handshake
// gate, and the capability contracts (handler, filter chain, message
// splitter, SSL manager) that protocol layers plug into.
package netio

import (
	"sync"
	"time"

	"github.com/cyberinferno/netengine/logger"
)

// ConnectModel selects which handshake role a socket context plays when TLS
// is enabled.
type ConnectModel int

const (
	// ServerModel is the role of a listening context and its accepted
	// children.
	ServerModel ConnectModel = iota
	// ClientModel is the role of an outbound connecting context.
	ClientModel
)

// String returns a human-readable name for the connect model.
func (m ConnectModel) String() string {
	switch m {
	case ServerModel:
		return "Server"
	case ClientModel:
		return "Client"
	default:
		return "Unknown"
	}
}

// Transport is the concrete socket behind a context. Implementations own the
// actual I/O; the context only coordinates configuration and lifecycle.
type Transport interface {
	// IsOpen reports whether the underlying socket exists and has not been
	// closed.
	IsOpen() bool

	// IsConnected reports whether the connection is established.
	IsConnected() bool

	// Close tears the socket down.
	//
	// Returns:
	//   - true if the close changed state, false if already closed
	Close() bool

	// Write writes raw bytes to the socket.
	//
	// Parameters:
	//   - data: The bytes to write
	//
	// Returns:
	//   - The number of bytes written and any write error
	Write(data []byte) (int, error)
}

// waitPollInterval is the fixed polling step of WaitConnected.
const waitPollInterval = time.Millisecond

// DefaultBufferSize is the read buffer size of a context unless overridden.
const DefaultBufferSize = 1024

// SocketContext owns the configuration of a listening or connected socket
// (host, port, timeouts, buffer size, connect model, handler, filter chain,
// message splitter, SSL manager) and the lifecycle coordination around its
// transport. Configuration is write-once by contract: mutating it after
// Start/SyncStart is caller error.
type SocketContext struct {
	host         string
	port         int
	readTimeout  time.Duration
	connectModel ConnectModel
	keepAlive    bool
	noDelay      bool

	mu              sync.RWMutex
	idleInterval    time.Duration
	bufferSize      int
	handler         Handler
	filterChain     *FilterChain
	messageSplitter MessageSplitter
	sslManager      SSLManager
	transport       Transport
	trigger         *EventTrigger
	log             logger.Logger
}

// NewSocketContext creates a context for the given endpoint. The idle
// interval defaults to 0 (IDLE dispatch disabled), the buffer size to
// DefaultBufferSize, the splitter to TransferSplitter, and the handler to a
// SynchronousHandler, matching the engine's synchronous-read default.
//
// Parameters:
//   - host: Remote host for a client context, bind host for a server context
//   - port: TCP port
//   - readTimeout: Bound for connect waits and synchronous reads
//
// Returns:
//   - A new SocketContext
func NewSocketContext(host string, port int, readTimeout time.Duration) *SocketContext {
	return &SocketContext{
		host:            host,
		port:            port,
		readTimeout:     readTimeout,
		bufferSize:      DefaultBufferSize,
		filterChain:     NewFilterChain(),
		messageSplitter: TransferSplitter{},
		handler:         NewSynchronousHandler(0),
		log:             logger.NewNopLogger(),
	}
}

// Host returns the configured host.
func (c *SocketContext) Host() string { return c.host }

// Port returns the configured port.
func (c *SocketContext) Port() int { return c.port }

// ReadTimeout returns the configured read timeout.
func (c *SocketContext) ReadTimeout() time.Duration { return c.readTimeout }

// ConnectModel returns the context's handshake role.
func (c *SocketContext) ConnectModel() ConnectModel { return c.connectModel }

// SetConnectModel sets the context's handshake role. Called by the concrete
// transport at construction.
//
// Parameters:
//   - m: ServerModel or ClientModel
func (c *SocketContext) SetConnectModel(m ConnectModel) { c.connectModel = m }

// IdleInterval returns the idle dispatch interval; 0 means disabled.
func (c *SocketContext) IdleInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.idleInterval
}

// SetIdleInterval sets the idle dispatch interval. 0 disables IDLE dispatch.
//
// Parameters:
//   - d: The interval between IDLE dispatches when no traffic flows
func (c *SocketContext) SetIdleInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idleInterval = d
}

// BufferSize returns the transport read buffer size.
func (c *SocketContext) BufferSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bufferSize
}

// SetBufferSize sets the transport read buffer size.
//
// Parameters:
//   - n: Buffer size in bytes; non-positive values are ignored
func (c *SocketContext) SetBufferSize(n int) {
	if n <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bufferSize = n
}

// SetKeepAlive requests TCP keep-alive on the socket.
func (c *SocketContext) SetKeepAlive(on bool) { c.keepAlive = on }

// KeepAlive reports whether TCP keep-alive was requested.
func (c *SocketContext) KeepAlive() bool { return c.keepAlive }

// SetNoDelay requests disabling of Nagle's algorithm on the socket.
func (c *SocketContext) SetNoDelay(on bool) { c.noDelay = on }

// NoDelay reports whether Nagle's algorithm disabling was requested.
func (c *SocketContext) NoDelay() bool { return c.noDelay }

// Handler returns the context's handler.
func (c *SocketContext) Handler() Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handler
}

// SetHandler replaces the context's handler. Apart from the one-way protocol
// upgrade performed by the HTTP client, this must happen before Start.
//
// Parameters:
//   - h: The new handler
func (c *SocketContext) SetHandler(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// FilterChain returns the context's filter chain. The chain is mutable and
// shared by reference with accepted children.
func (c *SocketContext) FilterChain() *FilterChain {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filterChain
}

// MessageSplitter returns the context's message splitter.
func (c *SocketContext) MessageSplitter() MessageSplitter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messageSplitter
}

// SetMessageSplitter replaces the context's message splitter. Apart from the
// one-way protocol upgrade, this must happen before Start.
//
// Parameters:
//   - sp: The new splitter
func (c *SocketContext) SetMessageSplitter(sp MessageSplitter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messageSplitter = sp
}

// SSLManager returns the attached SSL manager, or nil.
func (c *SocketContext) SSLManager() SSLManager {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sslManager
}

// SetSSLManager attaches an SSL manager. The first successful set wins;
// subsequent calls are no-ops, protecting an in-progress or completed
// handshake configuration from being swapped.
//
// Parameters:
//   - m: The manager to attach
func (c *SocketContext) SetSSLManager(m SSLManager) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sslManager == nil {
		c.sslManager = m
	}
}

// Logger returns the context's logger.
func (c *SocketContext) Logger() logger.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.log
}

// SetLogger replaces the context's logger.
//
// Parameters:
//   - log: The logger; nil is ignored
func (c *SocketContext) SetLogger(log logger.Logger) {
	if log == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = log
}

// Transport returns the bound transport, or nil before Bind.
func (c *SocketContext) Transport() Transport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transport
}

// Trigger returns the bound event trigger, or nil before Bind.
func (c *SocketContext) Trigger() *EventTrigger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.trigger
}

// Bind attaches the concrete transport and its event trigger to the context.
// Called by the transport at construction, before any I/O.
//
// Parameters:
//   - t: The transport that owns the socket
//   - trigger: The trigger used to dispatch this context's events
func (c *SocketContext) Bind(t Transport, trigger *EventTrigger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transport = t
	c.trigger = trigger
}

// InitSSL builds and attaches a handshake parser for the session when an SSL
// manager is present, choosing the server or client role from the connect
// model. No-op without a manager.
//
// Parameters:
//   - session: The session to negotiate for
//
// Returns:
//   - An error if the parser could not be created
func (c *SocketContext) InitSSL(session *Session) error {
	m := c.SSLManager()
	if m == nil {
		return nil
	}

	var (
		parser SSLParser
		err    error
	)

	if c.connectModel == ServerModel {
		parser, err = m.CreateServerParser(session)
	} else {
		parser, err = m.CreateClientParser(session)
	}

	if err != nil {
		return err
	}

	session.SetSSLParser(parser)
	return nil
}

// CopyFrom copies the parent's read timeout, handler, filter chain, message
// splitter, SSL manager, buffer size, and idle interval onto this context.
// Used to propagate a listening context's configuration onto each accepted
// connection's context; the handler, chain, splitter, and manager are shared
// by reference.
//
// Parameters:
//   - parent: The listening context to inherit from
func (c *SocketContext) CopyFrom(parent *SocketContext) {
	parent.mu.RLock()
	handler := parent.handler
	chain := parent.filterChain
	splitter := parent.messageSplitter
	sslManager := parent.sslManager
	bufferSize := parent.bufferSize
	idleInterval := parent.idleInterval
	log := parent.log
	parent.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.readTimeout = parent.readTimeout
	c.handler = handler
	c.filterChain = chain
	c.messageSplitter = splitter
	c.sslManager = sslManager
	c.bufferSize = bufferSize
	c.idleInterval = idleInterval
	c.log = log
}

// WaitConnected polls at a fixed short interval until the transport reports
// connected or the read timeout elapses, then polls until the session's
// handshake (if any) completes or the connection is no longer open. It never
// returns an error: on give-up it logs and force-closes the session, because
// this path may run where no caller error handling exists.
//
// Parameters:
//   - session: The session being established
func (c *SocketContext) WaitConnected(session *Session) {
	t := c.Transport()
	if t == nil {
		c.Logger().Error("wait connected without a bound transport")
		session.Close()
		return
	}

	deadline := time.Now().Add(c.readTimeout)
	for !t.IsConnected() {
		if time.Now().After(deadline) {
			c.Logger().Warn("wait connected gave up",
				logger.Field{Key: "host", Value: c.host},
				logger.Field{Key: "port", Value: c.port},
				logger.Field{Key: "timeout", Value: c.readTimeout},
				logger.Field{Key: "cause", Value: ErrHandshakeTimeout.Error()})
			session.Close()
			return
		}

		time.Sleep(waitPollInterval)
	}

	for session.SSLParser() != nil &&
		!session.SSLParser().IsHandshakeComplete() &&
		t.IsConnected() {
		time.Sleep(waitPollInterval)
	}
}
