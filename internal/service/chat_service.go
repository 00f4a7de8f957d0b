package service

import (
	"sync/atomic"
	"time"

	"github.com/cwrk-planet/presence-relay/internal/domain"
)

const defaultSystemName = "System"

// ChatService builds the transient messages the relay broadcasts.
type ChatService struct {
	systemName string
	now        func() time.Time
	lastID     atomic.Int64
}

func NewChatService(systemName string) *ChatService {
	if systemName == "" {
		systemName = defaultSystemName
	}
	return &ChatService{systemName: systemName, now: time.Now}
}

func (s *ChatService) User(sender, content string) domain.ChatMessage {
	return s.compose(domain.KindUser, sender, content)
}

func (s *ChatService) System(content string) domain.ChatMessage {
	return s.compose(domain.KindSystem, s.systemName, content)
}

func (s *ChatService) compose(kind domain.Kind, sender, content string) domain.ChatMessage {
	now := s.now()
	return domain.ChatMessage{
		ID:      s.nextID(now),
		Sender:  sender,
		Content: content,
		Kind:    kind,
		SentAt:  now,
	}
}

// nextID is the send time in unix milliseconds, bumped past the previous id
// so two messages in the same millisecond still differ.
func (s *ChatService) nextID(now time.Time) int64 {
	ms := now.UnixMilli()
	for {
		last := s.lastID.Load()
		id := max(ms, last+1)
		if s.lastID.CompareAndSwap(last, id) {
			return id
		}
	}
}
