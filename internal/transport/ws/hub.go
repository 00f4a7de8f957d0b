package ws

import (
	"fmt"
	"sync"

	"github.com/cwrk-planet/presence-relay/internal/domain"
)

type Conn interface {
	ID() string
	Send(evt domain.Event) error
	Close() error
}

// Hub tracks every open channel, joined or not. It is the relay's transport.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]Conn // channelID -> connection
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]Conn)}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[c.ID()] = c
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.conns[c.ID()]; ok && cur == c {
		delete(h.conns, c.ID())
	}
}

func (h *Hub) Connected(channelID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.conns[channelID]
	return ok
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.conns)
}

func (h *Hub) Send(channelID string, evt domain.Event) error {
	h.mu.RLock()
	c, ok := h.conns[channelID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %w", domain.ErrDeliveryFailure, domain.ErrUnknownChannel)
	}
	return c.Send(evt)
}

// CloseAll closes every open channel; used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		_ = c.Close()
	}
}
