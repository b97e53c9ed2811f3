package tcpsocket

import (
	"fmt"
	"net"
	"time"

	"github.com/cyberinferno/netengine/eventpool"
	"github.com/cyberinferno/netengine/logger"
	"github.com/cyberinferno/netengine/netio"
)

// TCPSocket is a client-model socket context: it dials the configured
// endpoint, runs the read and idle loops, and dispatches events through the
// shared pool. Configure the context (handler, filters, splitter, SSL
// manager) before calling Start or SyncStart.
type TCPSocket struct {
	ioCore
}

// NewTCPSocket creates a client socket for the given endpoint.
//
// Parameters:
//   - host: Remote host
//   - port: Remote TCP port
//   - readTimeout: Bound for connect waits and synchronous reads
//   - pool: Shared worker pool for pooled dispatch; nil drops pooled events
//   - log: Logger; nil for no logging
//
// Returns:
//   - A new TCPSocket; call SyncStart or Start to connect
func NewTCPSocket(host string, port int, readTimeout time.Duration, pool *eventpool.Pool, log logger.Logger) *TCPSocket {
	ctx := netio.NewSocketContext(host, port, readTimeout)
	ctx.SetConnectModel(netio.ClientModel)
	ctx.SetLogger(log)

	s := &TCPSocket{}
	s.init(ctx, netio.NewEventTrigger(pool, ctx.Logger()), 0)
	ctx.Bind(s, s.trigger)
	return s
}

// SyncStart establishes the connection and returns once it is usable:
// dial, optional TLS parser attachment, read and idle loops, CONNECT
// dispatch, then the WaitConnected poll (which also waits for the TLS
// handshake). Further I/O is event-driven.
//
// Returns:
//   - A *netio.TransportSetupError on dial or TLS setup failure
func (s *TCPSocket) SyncStart() error {
	dialer := net.Dialer{Timeout: s.ctx.ReadTimeout()}
	addr := net.JoinHostPort(s.ctx.Host(), fmt.Sprintf("%d", s.ctx.Port()))

	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return &netio.TransportSetupError{Op: "connect", Err: err}
	}

	applySocketOptions(conn, s.ctx)
	s.attach(conn)

	if err := s.ctx.InitSSL(s.session); err != nil {
		_ = conn.Close()
		s.closed.Store(true)
		s.connected.Store(false)
		return &netio.TransportSetupError{Op: "tls setup", Err: err}
	}

	go s.readLoop()
	go s.idleLoop()

	s.trigger.FireConnect(s.session, netio.Pooled)
	s.ctx.WaitConnected(s.session)

	return nil
}

// Start establishes the connection like SyncStart and then blocks until the
// context is torn down.
//
// Returns:
//   - A *netio.TransportSetupError on establishment failure
func (s *TCPSocket) Start() error {
	if err := s.SyncStart(); err != nil {
		return err
	}

	<-s.done
	return nil
}

// SynchronousRead performs one bounded read against the default
// SynchronousHandler, returning the next decoded message.
//
// Returns:
//   - The next message, or a *netio.ReadError on timeout, session error, or
//     when a custom handler replaced the synchronous one
func (s *TCPSocket) SynchronousRead() (any, error) {
	h, ok := s.ctx.Handler().(*netio.SynchronousHandler)
	if !ok {
		return nil, &netio.ReadError{Reason: "handler does not support synchronous reads"}
	}

	return h.Read(s.ctx.ReadTimeout())
}

// applySocketOptions applies the context's socket-option passthrough to a
// freshly established connection.
func applySocketOptions(conn net.Conn, ctx *netio.SocketContext) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}

	if ctx.KeepAlive() {
		_ = tcpConn.SetKeepAlive(true)
	}
	if ctx.NoDelay() {
		_ = tcpConn.SetNoDelay(true)
	}
}
