package netio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionKindUpgrade(t *testing.T) {
	t.Run("plain to websocket is the only allowed transition", func(t *testing.T) {
		session, _, _ := newTestSession(nil, newFakeTransport(true, true))
		assert.Equal(t, PlainSession, session.Kind())

		require.NoError(t, session.Upgrade(WebSocketSession))
		assert.Equal(t, WebSocketSession, session.Kind())
	})

	t.Run("upgrade does not repeat or reverse", func(t *testing.T) {
		session, _, _ := newTestSession(nil, newFakeTransport(true, true))
		require.NoError(t, session.Upgrade(WebSocketSession))

		assert.ErrorIs(t, session.Upgrade(WebSocketSession), ErrIllegalKindTransition)
		assert.ErrorIs(t, session.Upgrade(PlainSession), ErrIllegalKindTransition)
		assert.Equal(t, WebSocketSession, session.Kind())
	})

	t.Run("plain cannot re-target plain", func(t *testing.T) {
		session, _, _ := newTestSession(nil, newFakeTransport(true, true))
		assert.ErrorIs(t, session.Upgrade(PlainSession), ErrIllegalKindTransition)
	})
}

func TestSessionSSLParser(t *testing.T) {
	session, _, _ := newTestSession(nil, newFakeTransport(true, true))
	assert.Nil(t, session.SSLParser())

	first := &fakeParser{}
	second := &fakeParser{}
	session.SetSSLParser(first)
	session.SetSSLParser(second)

	assert.Same(t, SSLParser(first), session.SSLParser())
}

func TestHandshakeComplete(t *testing.T) {
	t.Run("nil session counts as complete", func(t *testing.T) {
		assert.True(t, HandshakeComplete(nil))
	})

	t.Run("plaintext session counts as complete", func(t *testing.T) {
		session, _, _ := newTestSession(nil, newFakeTransport(true, true))
		assert.True(t, HandshakeComplete(session))
	})

	t.Run("follows the parser state", func(t *testing.T) {
		session, _, _ := newTestSession(nil, newFakeTransport(true, true))
		parser := &fakeParser{}
		session.SetSSLParser(parser)

		assert.False(t, HandshakeComplete(session))
		parser.done.Store(true)
		assert.True(t, HandshakeComplete(session))
	})
}

func TestSessionIdleInterval(t *testing.T) {
	session, ctx, _ := newTestSession(nil, newFakeTransport(true, true))
	ctx.SetIdleInterval(10 * time.Second)
	assert.Equal(t, 10*time.Second, session.IdleInterval())

	session.SetIdleInterval(2 * time.Second)
	assert.Equal(t, 2*time.Second, session.IdleInterval())

	ctx.SetIdleInterval(time.Minute)
	assert.Equal(t, 2*time.Second, session.IdleInterval())
}

func TestSessionClose(t *testing.T) {
	transport := newFakeTransport(true, true)
	session, _, _ := newTestSession(nil, transport)

	assert.True(t, session.Close())
	assert.True(t, session.State().IsClosed())
	assert.False(t, transport.IsOpen())
	assert.False(t, session.Close())
}

func TestSessionReadBuffer(t *testing.T) {
	t.Run("feed appends and nextMessage consumes", func(t *testing.T) {
		session, _, _ := newTestSession(nil, newFakeTransport(true, true))
		session.FeedReadBuffer([]byte("ab"))
		session.FeedReadBuffer([]byte("cd"))
		assert.Equal(t, 4, session.ReadBufferLen())

		msg, ok := session.nextMessage(pairSplitter{})
		require.True(t, ok)
		assert.Equal(t, []byte("ab"), msg)
		assert.Equal(t, 2, session.ReadBufferLen())
	})

	t.Run("feed keeps its own copy", func(t *testing.T) {
		session, _, _ := newTestSession(nil, newFakeTransport(true, true))
		buf := []byte("ab")
		session.FeedReadBuffer(buf)
		buf[0] = 'z'

		msg, ok := session.nextMessage(pairSplitter{})
		require.True(t, ok)
		assert.Equal(t, []byte("ab"), msg)
	})

	t.Run("incomplete frame yields nothing", func(t *testing.T) {
		session, _, _ := newTestSession(nil, newFakeTransport(true, true))
		session.FeedReadBuffer([]byte("a"))

		_, ok := session.nextMessage(pairSplitter{})
		assert.False(t, ok)
		assert.Equal(t, 1, session.ReadBufferLen())
	})

	t.Run("empty feed is ignored", func(t *testing.T) {
		session, _, _ := newTestSession(nil, newFakeTransport(true, true))
		session.FeedReadBuffer(nil)
		assert.Zero(t, session.ReadBufferLen())
	})
}

func TestSessionSend(t *testing.T) {
	t.Run("writes encoded bytes and fires sent inline", func(t *testing.T) {
		handler := &recordingHandler{}
		transport := newFakeTransport(true, true)
		session, _, _ := newTestSession(handler, transport)

		require.NoError(t, session.Send([]byte("ping")))

		assert.Equal(t, []byte("ping"), transport.bytesWritten())
		assert.True(t, session.State().HasSent())
		_, _, _, sents, _, _, _ := handler.counts()
		assert.Equal(t, 1, sents)
	})

	t.Run("non-byte encode result fails", func(t *testing.T) {
		session, _, _ := newTestSession(nil, newFakeTransport(true, true))

		err := session.Send("not bytes")
		var sendErr *SendError
		require.ErrorAs(t, err, &sendErr)
	})

	t.Run("closed transport fails", func(t *testing.T) {
		session, _, _ := newTestSession(nil, newFakeTransport(false, false))

		err := session.Send([]byte("ping"))
		var sendErr *SendError
		require.ErrorAs(t, err, &sendErr)
		assert.Equal(t, "session is not open", sendErr.Reason)
	})
}

func TestSessionAttributes(t *testing.T) {
	session, _, _ := newTestSession(nil, newFakeTransport(true, true))
	session.Attributes().Store("user", "alice")

	value, ok := session.Attributes().Load("user")
	require.True(t, ok)
	assert.Equal(t, "alice", value)
}

func TestSessionKindString(t *testing.T) {
	assert.Equal(t, "Plain", PlainSession.String())
	assert.Equal(t, "WebSocket", WebSocketSession.String())
	assert.Equal(t, "Unknown", SessionKind(9).String())
}
