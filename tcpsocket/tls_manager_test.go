package tcpsocket

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberinferno/netengine/eventpool"
	"github.com/cyberinferno/netengine/netio"
)

func selfSignedCertificate(t *testing.T) tls.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "127.0.0.1"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}
}

func TestTLSEcho(t *testing.T) {
	pool := eventpool.NewPool(4, 32)
	defer pool.Close()

	server := NewTCPServer("127.0.0.1", 0, 3*time.Second, pool, nil)
	server.Context().SetHandler(&echoHandler{})
	server.Context().SetSSLManager(NewTLSManager(&tls.Config{
		Certificates: []tls.Certificate{selfSignedCertificate(t)},
	}))

	require.NoError(t, server.SyncStart())
	defer server.Stop()

	_, port, err := splitHostPort(server.Addr().String())
	require.NoError(t, err)

	client := NewTCPSocket("127.0.0.1", port, 3*time.Second, pool, nil)
	client.Context().SetSSLManager(NewTLSManager(&tls.Config{
		InsecureSkipVerify: true,
	}))

	require.NoError(t, client.SyncStart())
	defer client.Session().Close()

	require.NotNil(t, client.Session().SSLParser())
	require.True(t, netio.HandshakeComplete(client.Session()))

	require.NoError(t, client.Session().Send([]byte("over tls")))

	reply, err := client.SynchronousRead()
	require.NoError(t, err)
	assert.Equal(t, []byte("over tls"), reply)
}

func TestTLSHandshakeFailureClosesSession(t *testing.T) {
	pool := eventpool.NewPool(2, 16)
	defer pool.Close()

	// Plaintext echo server; the client's TLS negotiation cannot complete.
	_, _, port := startEchoServer(t, pool)

	client := NewTCPSocket("127.0.0.1", port, 300*time.Millisecond, pool, nil)
	client.Context().SetSSLManager(NewTLSManager(&tls.Config{
		InsecureSkipVerify: true,
	}))

	require.NoError(t, client.SyncStart())

	require.Eventually(t, func() bool {
		return client.Session().State().IsClosed()
	}, 3*time.Second, 10*time.Millisecond)
	assert.False(t, netio.HandshakeComplete(client.Session()))
}

// bareTransport satisfies netio.Transport without exposing a connection.
type bareTransport struct{}

func (bareTransport) IsOpen() bool              { return true }
func (bareTransport) IsConnected() bool         { return true }
func (bareTransport) Close() bool               { return false }
func (bareTransport) Write([]byte) (int, error) { return 0, nil }

func TestTLSManagerRequiresConnCarrier(t *testing.T) {
	ctx := netio.NewSocketContext("127.0.0.1", 9000, time.Second)
	ctx.Bind(bareTransport{}, netio.NewEventTrigger(nil, nil))
	session := netio.NewSession(1, ctx)

	manager := NewTLSManager(nil)

	_, err := manager.CreateClientParser(session)
	assert.Error(t, err)

	_, err = manager.CreateServerParser(session)
	assert.Error(t, err)
}

func TestTLSManagerRequiresEstablishedConn(t *testing.T) {
	socket := NewTCPSocket("127.0.0.1", 9000, time.Second, nil, nil)

	manager := NewTLSManager(nil)
	_, err := manager.CreateClientParser(socket.Session())
	assert.Error(t, err)
}
