package tcpsocket

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/cyberinferno/netengine/eventpool"
	"github.com/cyberinferno/netengine/idgenerator"
	"github.com/cyberinferno/netengine/logger"
	"github.com/cyberinferno/netengine/netio"
	"github.com/cyberinferno/netengine/safemap"
)

// TCPServer is a server-model listening context. Each accepted connection
// gets its own AcceptedSocket whose context inherits the listener's
// configuration via CopyFrom, a session ID from the generator, and an entry
// in the session registry.
type TCPServer struct {
	ctx      *netio.SocketContext
	pool     *eventpool.Pool
	log      logger.Logger
	listener net.Listener
	running  atomic.Bool
	sessions *safemap.SafeMap[uint64, *AcceptedSocket]
	ids      *idgenerator.IdGenerator
}

// NewTCPServer creates a listening context for the given bind address.
// Configure the context (handler, filters, splitter, SSL manager) before
// calling Start or SyncStart; accepted connections inherit it.
//
// Parameters:
//   - host: Bind host
//   - port: Bind TCP port
//   - readTimeout: Propagated to accepted contexts
//   - pool: Shared worker pool for pooled dispatch; nil drops pooled events
//   - log: Logger; nil for no logging
//
// Returns:
//   - A new TCPServer; call SyncStart or Start to listen
func NewTCPServer(host string, port int, readTimeout time.Duration, pool *eventpool.Pool, log logger.Logger) *TCPServer {
	ctx := netio.NewSocketContext(host, port, readTimeout)
	ctx.SetConnectModel(netio.ServerModel)
	ctx.SetLogger(log)

	return &TCPServer{
		ctx:      ctx,
		pool:     pool,
		log:      ctx.Logger(),
		sessions: safemap.NewSafeMap[uint64, *AcceptedSocket](),
		ids:      idgenerator.NewIdGenerator(0),
	}
}

// Context returns the listening context whose configuration accepted
// connections inherit.
func (s *TCPServer) Context() *netio.SocketContext {
	return s.ctx
}

// Addr returns the bound listener address, useful when port 0 was requested.
//
// Returns:
//   - The listener address, or nil before SyncStart
func (s *TCPServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// SyncStart binds the listener and starts the accept loop in a goroutine,
// returning immediately.
//
// Returns:
//   - A *netio.TransportSetupError on bind failure
func (s *TCPServer) SyncStart() error {
	if err := s.listen(); err != nil {
		return err
	}

	go s.acceptLoop()
	return nil
}

// Start binds the listener and runs the accept loop on the calling
// goroutine, not returning until the server is stopped.
//
// Returns:
//   - A *netio.TransportSetupError on bind failure
func (s *TCPServer) Start() error {
	if err := s.listen(); err != nil {
		return err
	}

	s.acceptLoop()
	return nil
}

func (s *TCPServer) listen() error {
	if s.running.Load() {
		return &netio.TransportSetupError{Op: "bind", Err: fmt.Errorf("server already running")}
	}

	addr := net.JoinHostPort(s.ctx.Host(), fmt.Sprintf("%d", s.ctx.Port()))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return &netio.TransportSetupError{Op: "bind", Err: err}
	}

	s.listener = ln
	s.running.Store(true)
	s.log.Info("server listening", logger.Field{Key: "addr", Value: ln.Addr().String()})
	return nil
}

// Stop stops the accept loop, closes the listener, and closes every active
// session. Safe to call when not running.
func (s *TCPServer) Stop() {
	if !s.running.Load() {
		return
	}

	s.running.Store(false)
	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.sessions.Range(func(_ uint64, sock *AcceptedSocket) bool {
		sock.Session().Close()
		return true
	})

	s.log.Info("server stopped")
}

// SessionCount returns the number of active accepted sessions.
func (s *TCPServer) SessionCount() int {
	return s.sessions.Len()
}

// GetSession returns the accepted socket for the given session ID.
//
// Parameters:
//   - id: The session ID to look up
//
// Returns:
//   - The socket and true if found
func (s *TCPServer) GetSession(id uint64) (*AcceptedSocket, bool) {
	return s.sessions.Load(id)
}

func (s *TCPServer) acceptLoop() {
	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}

			s.log.Error("accept failed", logger.Field{Key: "error", Value: err})
			continue
		}

		s.handleAccept(conn)
	}
}

func (s *TCPServer) handleAccept(conn net.Conn) {
	id := s.ids.NextID()
	sock := newAcceptedSocket(s, id, conn)
	s.sessions.Store(id, sock)

	if err := sock.AcceptStart(); err != nil {
		s.log.Error("accepted connection setup failed",
			logger.Field{Key: "session", Value: id},
			logger.Field{Key: "error", Value: err})
		s.sessions.Delete(id)
		_ = conn.Close()
	}
}

// AcceptedSocket is the server-side transport of one accepted connection.
// Its context is built by inheriting the listening context's configuration;
// its lifecycle is the internal AcceptStart entry point rather than
// Start/SyncStart.
type AcceptedSocket struct {
	ioCore
	server *TCPServer
}

func newAcceptedSocket(server *TCPServer, id uint64, conn net.Conn) *AcceptedSocket {
	host, port := remoteEndpoint(conn)
	ctx := netio.NewSocketContext(host, port, server.ctx.ReadTimeout())
	ctx.SetConnectModel(netio.ServerModel)
	ctx.CopyFrom(server.ctx)

	sock := &AcceptedSocket{server: server}
	sock.init(ctx, netio.NewEventTrigger(server.pool, ctx.Logger()), id)
	sock.onClose = func() { server.sessions.Delete(id) }
	ctx.Bind(sock, sock.trigger)
	sock.attach(conn)
	return sock
}

// AcceptStart brings an accepted connection up: socket options, optional
// server-role TLS parser, ACCEPTED and CONNECT dispatch, then the read and
// idle loops. Internal entry point used by the server; not meant for
// already-connected contexts.
//
// Returns:
//   - An error if TLS setup fails
func (a *AcceptedSocket) AcceptStart() error {
	conn := a.rawConn()
	applySocketOptions(conn, a.ctx)

	if err := a.ctx.InitSSL(a.session); err != nil {
		a.Close()
		return err
	}

	a.trigger.FireAccepted(a.session, netio.Pooled)

	go a.readLoop()
	go a.idleLoop()

	a.trigger.FireConnect(a.session, netio.Pooled)
	return nil
}

func remoteEndpoint(conn net.Conn) (string, int) {
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		return addr.IP.String(), addr.Port
	}

	return conn.RemoteAddr().String(), 0
}
