package domain

type EventType string

const (
	EventMessage    EventType = "message"
	EventUserJoined EventType = "userJoined"
	EventUserLeft   EventType = "userLeft"
)

// Event is what the relay hands to the transport for one recipient.
// Message is set for EventMessage; User and Online for presence events.
type Event struct {
	Type    EventType
	Message ChatMessage
	User    string
	Online  []Participant
}
