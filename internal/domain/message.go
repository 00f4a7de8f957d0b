package domain

import "time"

type Kind string

const (
	KindSystem Kind = "system"
	KindUser   Kind = "user"
)

// ChatMessage is never stored: it lives only for the duration of one broadcast.
type ChatMessage struct {
	ID      int64
	Sender  string
	Content string
	Kind    Kind
	SentAt  time.Time
}
