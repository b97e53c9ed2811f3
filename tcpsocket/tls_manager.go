package tcpsocket

import (
	"crypto/tls"
	"errors"
	"net"
	"sync/atomic"

	"github.com/cyberinferno/netengine/logger"
	"github.com/cyberinferno/netengine/netio"
)

// connCarrier is implemented by the transports in this package so the TLS
// manager can wrap the raw socket in place.
type connCarrier interface {
	rawConn() net.Conn
	replaceConn(conn net.Conn)
}

// TLSManager is the crypto/tls-backed netio.SSLManager. It wraps the
// session's raw connection with tls.Client or tls.Server according to the
// requested role and drives the handshake in the background; the resulting
// parser gates RECEIVE delivery until negotiation completes.
type TLSManager struct {
	config *tls.Config
}

// NewTLSManager creates a TLS manager from the given configuration. Server
// role requires certificates in the config; client role fills in ServerName
// from the context's host when absent.
//
// Parameters:
//   - config: TLS configuration; nil uses an empty config
//
// Returns:
//   - A new TLSManager
func NewTLSManager(config *tls.Config) *TLSManager {
	if config == nil {
		config = &tls.Config{}
	}

	return &TLSManager{config: config}
}

// CreateServerParser implements netio.SSLManager.
func (m *TLSManager) CreateServerParser(session *netio.Session) (netio.SSLParser, error) {
	carrier, raw, err := carrierFor(session)
	if err != nil {
		return nil, err
	}

	conn := tls.Server(raw, m.config.Clone())
	carrier.replaceConn(conn)

	parser := &tlsParser{conn: conn}
	go parser.negotiate(session)
	return parser, nil
}

// CreateClientParser implements netio.SSLManager.
func (m *TLSManager) CreateClientParser(session *netio.Session) (netio.SSLParser, error) {
	carrier, raw, err := carrierFor(session)
	if err != nil {
		return nil, err
	}

	config := m.config.Clone()
	if config.ServerName == "" {
		config.ServerName = session.Context().Host()
	}

	conn := tls.Client(raw, config)
	carrier.replaceConn(conn)

	parser := &tlsParser{conn: conn}
	go parser.negotiate(session)
	return parser, nil
}

func carrierFor(session *netio.Session) (connCarrier, net.Conn, error) {
	carrier, ok := session.Context().Transport().(connCarrier)
	if !ok {
		return nil, nil, errors.New("transport does not expose its connection")
	}

	raw := carrier.rawConn()
	if raw == nil {
		return nil, nil, errors.New("no connection established")
	}

	return carrier, raw, nil
}

// tlsParser drives one TLS negotiation and reports completion to the
// handshake gate.
type tlsParser struct {
	conn *tls.Conn
	done atomic.Bool
}

// IsHandshakeComplete implements netio.SSLParser.
func (p *tlsParser) IsHandshakeComplete() bool {
	return p.done.Load()
}

// negotiate runs the handshake. A failed negotiation force-closes the
// session; the gate then never opens and no ciphertext reaches the decode
// pipeline.
func (p *tlsParser) negotiate(session *netio.Session) {
	if err := p.conn.Handshake(); err != nil {
		session.Context().Logger().Error("tls handshake failed",
			logger.Field{Key: "session", Value: session.ID()},
			logger.Field{Key: "error", Value: err})
		session.Close()
		return
	}

	p.done.Store(true)
}
