package netio

// Handler receives the lifecycle and message callbacks of a session. Each
// event kind maps one-to-one to a method. Callbacks may run on an event pool
// worker or on the thread that observed the raw I/O occurrence; they must be
// safe for concurrent use and must not assume delivery order across kinds.
//
// OnConnect and OnReceive may return a non-nil reply, which is encoded
// through the filter chain and written back to the transport.
type Handler interface {
	// OnAccepted is called when a listening context accepts a connection.
	OnAccepted(session *Session)

	// OnConnect is called once the connection is established.
	//
	// Returns:
	//   - An optional reply to send, or nil
	OnConnect(session *Session) any

	// OnReceive is called with a decoded inbound message.
	//
	// Returns:
	//   - An optional reply to send, or nil
	OnReceive(session *Session, message any) any

	// OnSent is called after an outbound write, with an attachment describing
	// it (e.g. the number of bytes written).
	OnSent(session *Session, attachment any)

	// OnDisconnect is called when the session reaches its terminal phase.
	OnDisconnect(session *Session)

	// OnIdle is called when the idle interval elapses without traffic. Only
	// dispatched when the context's idle interval is greater than zero.
	OnIdle(session *Session)

	// OnException is called with an error observed by the transport. This is
	// an independent notification channel; the same root cause may also
	// surface as a typed error to a direct caller.
	OnException(session *Session, err error)
}

// BaseHandler is a no-op Handler intended for embedding, so that
// implementations only override the callbacks they care about.
type BaseHandler struct{}

// OnAccepted implements Handler.
func (BaseHandler) OnAccepted(*Session) {}

// OnConnect implements Handler.
func (BaseHandler) OnConnect(*Session) any { return nil }

// OnReceive implements Handler.
func (BaseHandler) OnReceive(*Session, any) any { return nil }

// OnSent implements Handler.
func (BaseHandler) OnSent(*Session, any) {}

// OnDisconnect implements Handler.
func (BaseHandler) OnDisconnect(*Session) {}

// OnIdle implements Handler.
func (BaseHandler) OnIdle(*Session) {}

// OnException implements Handler.
func (BaseHandler) OnException(*Session, error) {}
