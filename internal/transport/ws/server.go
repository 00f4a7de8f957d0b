package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cwrk-planet/presence-relay/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Relay interface {
	OnConnect(ctx context.Context, channelID string)
	Join(ctx context.Context, channelID, displayName string) error
	SendMessage(ctx context.Context, channelID, sender, content string) error
	Disconnect(ctx context.Context, channelID string) error
}

type Options struct {
	PingEvery  time.Duration
	WriteWait  time.Duration
	ReadLimit  int64
	SendBuffer int
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	relay    Relay

	pingEvery  time.Duration
	writeWait  time.Duration
	readLimit  int64
	sendBuffer int

	sessions sync.WaitGroup
}

func NewServer(hub *Hub, relay Relay, opts Options) *Server {
	s := &Server{
		hub:   hub,
		relay: relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// LAN chat: any page on the network may connect
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pingEvery:  15 * time.Second,
		writeWait:  5 * time.Second,
		readLimit:  64 << 10,
		sendBuffer: 64,
	}
	if opts.PingEvery > 0 {
		s.pingEvery = opts.PingEvery
	}
	if opts.WriteWait > 0 {
		s.writeWait = opts.WriteWait
	}
	if opts.ReadLimit > 0 {
		s.readLimit = opts.ReadLimit
	}
	if opts.SendBuffer > 0 {
		s.sendBuffer = opts.SendBuffer
	}
	return s
}

// Wait blocks until every session has run its final Disconnect, or ctx ends.
func (s *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WS endpoint: GET /ws
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request
		slog.Warn("ws upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	s.sessions.Add(1)
	defer s.sessions.Done()

	// the request context must outlive the read loop for the final Disconnect
	ctx := context.WithoutCancel(r.Context())
	c := newWsConn(conn, uuid.NewString(), s.sendBuffer)

	s.hub.Add(c)
	s.relay.OnConnect(ctx, c.id)
	slog.Debug("ws connected", "channel", c.id, "remote", r.RemoteAddr, "open", s.hub.Count())

	go s.writeLoop(c)
	s.readLoop(ctx, c)

	s.hub.Remove(c)
	if err := s.relay.Disconnect(ctx, c.id); err != nil {
		slog.Warn("ws disconnect failed", "channel", c.id, "err", err)
	}
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "channel", c.id, "err", err)
	}
	slog.Debug("ws disconnected", "channel", c.id, "open", s.hub.Count())
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	c.conn.SetReadLimit(s.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				slog.Debug("ws read failed", "channel", c.id, "err", err)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("ws malformed frame", "channel", c.id, "err", err)
			continue
		}
		s.dispatch(ctx, c, msg)
	}
}

func (s *Server) dispatch(ctx context.Context, c *wsConn, msg inbound) {
	switch msg.Type {
	case TypeJoin:
		// a missing or non-string name is an empty one
		var name string
		if err := json.Unmarshal(msg.Payload, &name); err != nil {
			slog.Debug("ws join payload not a string", "channel", c.id, "err", err)
		}
		s.reject(c, s.relay.Join(ctx, c.id, name))
	case TypeSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Debug("ws sendMessage payload malformed", "channel", c.id, "err", err)
			return
		}
		s.reject(c, s.relay.SendMessage(ctx, c.id, p.Sender, p.Content))
	default:
		slog.Debug("ws unknown event ignored", "channel", c.id, "type", msg.Type)
	}
}

// reject tells the channel why its request was refused.
func (s *Server) reject(c *wsConn, err error) {
	if err == nil {
		return
	}
	if err := c.enqueue(Message{Type: TypeError, Payload: ErrorPayload{Error: errorText(err)}}); err != nil {
		slog.Debug("ws error frame dropped", "channel", c.id, "err", err)
	}
}

func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidJoinPayload):
		return "invalid display name"
	case errors.Is(err, domain.ErrAlreadyJoined):
		return "already joined"
	case errors.Is(err, domain.ErrUnknownChannel):
		return "join the chat first"
	default:
		return "temporarily unavailable"
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				slog.Debug("ws write failed", "channel", c.id, "err", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeWait)); err != nil {
				slog.Debug("ws ping failed", "channel", c.id, "err", err)
				_ = c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}
