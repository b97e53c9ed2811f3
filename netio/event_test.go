package netio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "Accepted", EventAccepted.String())
	assert.Equal(t, "Connect", EventConnect.String())
	assert.Equal(t, "Receive", EventReceive.String())
	assert.Equal(t, "Sent", EventSent.String())
	assert.Equal(t, "Disconnect", EventDisconnect.String())
	assert.Equal(t, "Idle", EventIdle.String())
	assert.Equal(t, "Exception", EventException.String())
	assert.Equal(t, "Unknown", EventKind(99).String())
}

func TestEventRecycling(t *testing.T) {
	session, _, _ := newTestSession(nil, newFakeTransport(true, true))

	e := acquireEvent(session, EventSent, 7)
	assert.Same(t, session, e.Session)
	assert.Equal(t, EventSent, e.Kind)
	assert.Equal(t, 7, e.Attachment)

	releaseEvent(e)
	assert.Nil(t, e.Session)
	assert.Nil(t, e.Attachment)
}
