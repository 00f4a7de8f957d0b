package ws

import (
	"encoding/json"
	"time"

	"github.com/cwrk-planet/presence-relay/internal/domain"

	"github.com/samber/lo"
)

// Event types on the wire
const (
	TypeJoin        = "join"        // client joins under a display name
	TypeSendMessage = "sendMessage" // client chat message
	TypeMessage     = "message"     // chat or system message
	TypeUserJoined  = "userJoined"  // presence after a join
	TypeUserLeft    = "userLeft"    // presence after a leave
	TypeError       = "error"       // rejected request, only to the offending channel
)

// message kinds as the browser client knows them
const (
	kindSystem = "system"
	kindOther  = "other"
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// inbound keeps the payload raw until the type is known.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type SendMessagePayload struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

type ChatPayload struct {
	ID      int64  `json:"id"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
	Type    string `json:"type"`
	Time    string `json:"time"`
}

type PresencePayload struct {
	User        string           `json:"user"`
	OnlineUsers []OnlineUserItem `json:"onlineUsers"`
}

type OnlineUserItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func toWire(evt domain.Event) Message {
	switch evt.Type {
	case domain.EventUserJoined, domain.EventUserLeft:
		return Message{Type: string(evt.Type), Payload: PresencePayload{
			User:        evt.User,
			OnlineUsers: OnlineUsers(evt.Online),
		}}
	default:
		m := evt.Message
		kind := kindOther
		if m.Kind == domain.KindSystem {
			kind = kindSystem
		}
		return Message{Type: TypeMessage, Payload: ChatPayload{
			ID:      m.ID,
			Sender:  m.Sender,
			Content: m.Content,
			Type:    kind,
			Time:    m.SentAt.Format(time.TimeOnly),
		}}
	}
}

// OnlineUsers never returns nil so the list encodes as [] rather than null.
func OnlineUsers(ps []domain.Participant) []OnlineUserItem {
	return lo.Map(ps, func(p domain.Participant, _ int) OnlineUserItem {
		return OnlineUserItem{ID: p.ChannelID, Name: p.DisplayName, Status: string(p.Status)}
	})
}
