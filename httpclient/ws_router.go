package httpclient

import (
	"github.com/cyberinferno/netengine/netio"
)

// WebSocketRouter receives the callbacks of an upgraded session. OnOpen and
// OnMessage may return a non-nil payload, which is sent back as a text
// frame.
type WebSocketRouter interface {
	// OnOpen is called once the upgrade completes.
	//
	// Returns:
	//   - An optional payload to send as the first frame, or nil
	OnOpen(session *netio.Session) []byte

	// OnMessage is called with the payload of each text or binary frame.
	//
	// Returns:
	//   - An optional reply payload, or nil
	OnMessage(session *netio.Session, payload []byte) []byte

	// OnClose is called when the upgraded session disconnects.
	OnClose(session *netio.Session)
}

// webSocketHandler adapts a WebSocketRouter to the engine's Handler
// contract. It is installed by the upgrade, replacing the synchronous HTTP
// handler for the rest of the session's life.
type webSocketHandler struct {
	netio.BaseHandler
	router WebSocketRouter
}

func newWebSocketHandler(router WebSocketRouter) *webSocketHandler {
	return &webSocketHandler{router: router}
}

// OnReceive implements netio.Handler. Control frames are answered here;
// data frames go to the router.
func (h *webSocketHandler) OnReceive(session *netio.Session, message any) any {
	frame, ok := message.(*Frame)
	if !ok {
		return nil
	}

	switch frame.Opcode {
	case OpcodeText, OpcodeBinary:
		if reply := h.router.OnMessage(session, frame.Payload); reply != nil {
			return &Frame{Fin: true, Opcode: frame.Opcode, Payload: reply}
		}

	case OpcodePing:
		return &Frame{Fin: true, Opcode: OpcodePong, Payload: frame.Payload}

	case OpcodeClose:
		_ = session.Send(&Frame{Fin: true, Opcode: OpcodeClose})
		session.Close()
	}

	return nil
}

// OnDisconnect implements netio.Handler.
func (h *webSocketHandler) OnDisconnect(session *netio.Session) {
	h.router.OnClose(session)
}
