package ws

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cwrk-planet/presence-relay/internal/domain"

	"github.com/gorilla/websocket"
)

// wsConn queues encoded frames for its write loop so that senders never
// block on a slow peer.
type wsConn struct {
	conn *websocket.Conn
	id   string

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newWsConn(c *websocket.Conn, id string, buffer int) *wsConn {
	return &wsConn{
		conn:   c,
		id:     id,
		send:   make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(evt domain.Event) error {
	return c.enqueue(toWire(evt))
}

func (c *wsConn) enqueue(msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", domain.ErrDeliveryFailure, msg.Type, err)
	}

	select {
	case <-c.closed:
		return fmt.Errorf("%w: channel %s closed", domain.ErrDeliveryFailure, c.id)
	default:
	}

	select {
	case c.send <- b:
		return nil
	default:
		return fmt.Errorf("%w: channel %s outbound buffer full", domain.ErrDeliveryFailure, c.id)
	}
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}
