package http

import "time"

type ParticipantItem struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

type ParticipantsResponse struct {
	Items []ParticipantItem `json:"items"`
	Count int               `json:"count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
