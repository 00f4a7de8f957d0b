package ws

import (
	"errors"
	"testing"

	"github.com/cwrk-planet/presence-relay/internal/domain"

	"github.com/stretchr/testify/require"
)

type stubConn struct {
	id     string
	sent   []domain.Event
	err    error
	closed bool
}

func (c *stubConn) ID() string { return c.id }

func (c *stubConn) Send(evt domain.Event) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, evt)
	return nil
}

func (c *stubConn) Close() error {
	c.closed = true
	return nil
}

func TestHub_SendToUnknownChannel(t *testing.T) {
	req := require.New(t)
	hub := NewHub()

	err := hub.Send("nope", domain.Event{Type: domain.EventMessage})

	req.ErrorIs(err, domain.ErrDeliveryFailure)
	req.ErrorIs(err, domain.ErrUnknownChannel)
}

func TestHub_AddSendRemove(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	c := &stubConn{id: "c1"}

	hub.Add(c)
	req.True(hub.Connected("c1"))
	req.Equal(1, hub.Count())
	req.NoError(hub.Send("c1", domain.Event{Type: domain.EventMessage}))
	req.Len(c.sent, 1)

	hub.Remove(c)
	req.False(hub.Connected("c1"))
	req.Equal(0, hub.Count())
}

func TestHub_RemoveIgnoresStaleConn(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	old := &stubConn{id: "c1"}
	cur := &stubConn{id: "c1"}

	hub.Add(old)
	hub.Add(cur)
	hub.Remove(old)

	req.True(hub.Connected("c1"))
}

func TestHub_SendPassesConnError(t *testing.T) {
	broken := errors.New("broken pipe")
	hub := NewHub()
	hub.Add(&stubConn{id: "c1", err: broken})

	require.ErrorIs(t, hub.Send("c1", domain.Event{}), broken)
}

func TestHub_CloseAll(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	a, b := &stubConn{id: "a"}, &stubConn{id: "b"}
	hub.Add(a)
	hub.Add(b)

	hub.CloseAll()

	req.True(a.closed)
	req.True(b.closed)
}

func TestWsConn_EnqueueFailures(t *testing.T) {
	req := require.New(t)
	c := newWsConn(nil, "c1", 1)

	req.NoError(c.Send(domain.Event{Type: domain.EventMessage}))
	err := c.Send(domain.Event{Type: domain.EventMessage})
	req.ErrorIs(err, domain.ErrDeliveryFailure)
	req.Contains(err.Error(), "buffer full")

	<-c.send
	close(c.closed)
	err = c.Send(domain.Event{Type: domain.EventMessage})
	req.ErrorIs(err, domain.ErrDeliveryFailure)
	req.Contains(err.Error(), "closed")
}
