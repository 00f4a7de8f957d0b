package service

import "github.com/cwrk-planet/presence-relay/internal/domain"

//go:generate mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks

// Transport is the channel layer the relay talks to.
type Transport interface {
	// Connected reports whether the channel is currently open.
	Connected(channelID string) bool
	// Send queues evt for one channel without waiting for the peer.
	Send(channelID string, evt domain.Event) error
}
