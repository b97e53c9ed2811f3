// Package tcpsocket provides the concrete TCP transport behind the engine:
// an outbound client socket, an accepting server whose accepted connections
// inherit the listening context's configuration, and a crypto/tls-backed SSL
// manager. All event delivery goes through the netio trigger.
package tcpsocket

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cyberinferno/netengine/logger"
	"github.com/cyberinferno/netengine/netio"
)

// ioCore is the connection machinery shared by the client socket and each
// accepted server socket: it owns the net.Conn, runs the read loop and the
// idle ticker, and implements netio.Transport.
type ioCore struct {
	ctx     *netio.SocketContext
	trigger *netio.EventTrigger
	session *netio.Session
	log     logger.Logger

	mu        sync.RWMutex
	conn      net.Conn
	connected atomic.Bool
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	discOnce  sync.Once
	lastRead  atomic.Int64
	onClose   func()
}

// init wires the core to its context and trigger and creates the session.
func (c *ioCore) init(ctx *netio.SocketContext, trigger *netio.EventTrigger, sessionID uint64) {
	c.ctx = ctx
	c.trigger = trigger
	c.log = ctx.Logger()
	c.done = make(chan struct{})
	c.session = netio.NewSession(sessionID, ctx)
}

// attach installs the established connection and marks the transport
// connected.
func (c *ioCore) attach(conn net.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.touch()
	c.connected.Store(true)
}

// rawConn returns the current connection. Part of the connCarrier contract
// used by the TLS manager.
func (c *ioCore) rawConn() net.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// replaceConn swaps the connection, used when the TLS manager wraps the raw
// socket. Part of the connCarrier contract.
func (c *ioCore) replaceConn(conn net.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// Session returns the transport's session.
func (c *ioCore) Session() *netio.Session {
	return c.session
}

// Context returns the transport's socket context.
func (c *ioCore) Context() *netio.SocketContext {
	return c.ctx
}

// IsOpen implements netio.Transport.
func (c *ioCore) IsOpen() bool {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	return conn != nil && !c.closed.Load()
}

// IsConnected implements netio.Transport.
func (c *ioCore) IsConnected() bool {
	return c.connected.Load() && !c.closed.Load()
}

// Close implements netio.Transport. The first call closes the connection and
// releases the loops; later calls report no state change.
func (c *ioCore) Close() bool {
	changed := false
	c.closeOnce.Do(func() {
		changed = true
		c.closed.Store(true)
		c.connected.Store(false)

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}

		close(c.done)
		c.session.State().MarkClosed()

		if c.onClose != nil {
			c.onClose()
		}
	})

	return changed
}

// Write implements netio.Transport.
func (c *ioCore) Write(data []byte) (int, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil || c.closed.Load() {
		return 0, errors.New("connection is closed")
	}

	return conn.Write(data)
}

// touch records read activity for the idle ticker.
func (c *ioCore) touch() {
	c.lastRead.Store(time.Now().UnixNano())
}

// readLoop reads from the connection into a buffer of the context's size,
// feeds the session's inbound buffer, and fires RECEIVE through the pooled
// path. On a read failure it fires EXCEPTION (unless the close was local or
// the peer simply went away) and then tears the connection down.
func (c *ioCore) readLoop() {
	buf := make([]byte, c.ctx.BufferSize())

	for {
		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn == nil || c.closed.Load() {
			c.shutdown()
			return
		}

		n, err := conn.Read(buf)
		if n > 0 {
			c.touch()
			c.session.FeedReadBuffer(buf[:n])
			c.trigger.FireReceive(c.session, netio.Pooled)
		}

		if err != nil {
			if !c.closed.Load() && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.log.Warn("read failed",
					logger.Field{Key: "session", Value: c.session.ID()},
					logger.Field{Key: "error", Value: err})
				c.trigger.FireException(c.session, err, netio.Pooled)
			}

			c.shutdown()
			return
		}
	}
}

// idleLoop fires IDLE through the pooled path whenever the session's idle
// interval elapses without read activity. Not started when the interval is
// zero.
func (c *ioCore) idleLoop() {
	interval := c.session.IdleInterval()
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			last := time.Unix(0, c.lastRead.Load())
			if now.Sub(last) >= interval {
				c.trigger.FireIdle(c.session, netio.Pooled)
			}
		}
	}
}

// shutdown closes the transport and fires DISCONNECT exactly once.
func (c *ioCore) shutdown() {
	c.Close()
	c.discOnce.Do(func() {
		c.trigger.FireDisconnect(c.session, netio.Pooled)
	})
}
