package chat

import "github.com/meeting-agent/chatwidget/internal/model/chat"

// EventType names what changed in a client.
type EventType string

const (
	EventMessage EventType = "message"
	EventDraft   EventType = "draft"
)

// Event is delivered to subscribers after every transcript append and every
// draft change, in the order they happened.
type Event struct {
	Type    EventType     `json:"type"`
	Message *chat.Message `json:"message,omitempty"`
	Draft   *chat.Draft   `json:"draft,omitempty"`
}

// Subscription is a live view of a client: the state at subscribe time plus
// every later event. Events is closed when the subscription is closed or
// falls too far behind.
type Subscription struct {
	Messages []chat.Message
	Draft    chat.Draft
	Events   <-chan Event

	close func()
}

// Close stops delivery. It is safe to call more than once.
func (s *Subscription) Close() {
	s.close()
}
