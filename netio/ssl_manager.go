package netio

// SSLParser drives the TLS negotiation for one session and reports its
// progress. Inbound data delivery is gated on IsHandshakeComplete, so
// encrypted or partially negotiated bytes never reach the decode pipeline.
type SSLParser interface {
	// IsHandshakeComplete reports whether TLS negotiation has finished.
	IsHandshakeComplete() bool
}

// SSLManager builds handshake parsers for sessions. Which factory is used
// depends on the context's connect model. A manager, once attached to a
// context, cannot be replaced.
type SSLManager interface {
	// CreateServerParser builds a server-role parser and attaches it to the
	// session.
	//
	// Parameters:
	//   - session: The session to negotiate for
	//
	// Returns:
	//   - The parser, or an error if negotiation could not be started
	CreateServerParser(session *Session) (SSLParser, error)

	// CreateClientParser builds a client-role parser and attaches it to the
	// session.
	//
	// Parameters:
	//   - session: The session to negotiate for
	//
	// Returns:
	//   - The parser, or an error if negotiation could not be started
	CreateClientParser(session *Session) (SSLParser, error)
}

// HandshakeComplete is the gate consulted before RECEIVE dispatch: true when
// the session has no SSL parser attached (plaintext connection) or when its
// parser reports completion.
//
// Parameters:
//   - session: The session to check; nil is treated as complete
//
// Returns:
//   - true when inbound data may be delivered to the decode pipeline
func HandshakeComplete(session *Session) bool {
	if session == nil {
		return true
	}

	parser := session.SSLParser()
	if parser == nil {
		return true
	}

	return parser.IsHandshakeComplete()
}
