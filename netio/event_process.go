package netio

import "github.com/cyberinferno/netengine/logger"

// process routes one event through the filter chain to the matching handler
// callback. It is the single execution path for both dispatch modes; the
// event is recycled once the routing completes.
func (t *EventTrigger) process(event *Event) {
	defer releaseEvent(event)

	session := event.Session
	ctx := session.Context()
	handler := ctx.Handler()
	if handler == nil {
		return
	}

	switch event.Kind {
	case EventAccepted:
		handler.OnAccepted(session)

	case EventConnect:
		reply := handler.OnConnect(session)
		t.sendReply(session, reply)

	case EventReceive:
		t.processReceive(session, handler)

	case EventSent:
		handler.OnSent(session, event.Attachment)

	case EventDisconnect:
		handler.OnDisconnect(session)

	case EventIdle:
		handler.OnIdle(session)

	case EventException:
		err, _ := event.Attachment.(error)
		handler.OnException(session, err)
	}
}

// processReceive drains every complete message currently buffered on the
// session: splitter for the boundary, filter chain decode, then OnReceive.
// The single-flight guard is released here, once the dispatch completes, so
// a firing dropped while this runs loses nothing — the buffered bytes are
// consumed by this pass or the next one.
func (t *EventTrigger) processReceive(session *Session, handler Handler) {
	defer session.State().EndReceive()

	ctx := session.Context()
	for {
		raw, ok := session.nextMessage(ctx.MessageSplitter())
		if !ok {
			return
		}

		message, err := ctx.FilterChain().Decode(session, raw)
		if err != nil {
			t.log.Error("inbound decode failed",
				logger.Field{Key: "session", Value: session.ID()},
				logger.Field{Key: "error", Value: err})
			handler.OnException(session, err)
			continue
		}

		reply := handler.OnReceive(session, message)
		t.sendReply(session, reply)
	}
}

// sendReply writes an optional handler reply back through the session. Send
// failures surface on the EXCEPTION channel; there is no direct caller here
// to throw to.
func (t *EventTrigger) sendReply(session *Session, reply any) {
	if reply == nil {
		return
	}

	if err := session.Send(reply); err != nil {
		t.log.Error("reply send failed",
			logger.Field{Key: "session", Value: session.ID()},
			logger.Field{Key: "error", Value: err})
		if handler := session.Context().Handler(); handler != nil {
			handler.OnException(session, err)
		}
	}
}
