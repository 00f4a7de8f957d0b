package domain

import "time"

type Status string

// StatusOnline is the only status a participant ever has.
const StatusOnline Status = "online"

type Participant struct {
	ChannelID   string
	DisplayName string
	Status      Status
	JoinedAt    time.Time
}
