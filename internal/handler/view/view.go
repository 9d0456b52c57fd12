// Package view shapes transcript state for the browser.
package view

import (
	"github.com/meeting-agent/chatwidget/internal/model/chat"
	"github.com/meeting-agent/chatwidget/internal/render"
	chatService "github.com/meeting-agent/chatwidget/internal/service/chat"
)

// Message is a transcript entry plus its rendered HTML.
type Message struct {
	chat.Message
	HTML string `json:"html"`
}

// Snapshot is the full widget state sent when a view attaches.
type Snapshot struct {
	SessionID string     `json:"sessionId"`
	Messages  []Message  `json:"messages"`
	Draft     chat.Draft `json:"draft"`
}

// FromMessage renders assistant replies as markdown and user text verbatim.
// A reply that fails to render falls back to escaped text.
func FromMessage(msg chat.Message) Message {
	if msg.Role != chat.RoleAssistant {
		return Message{Message: msg, HTML: render.Plain(msg.Text)}
	}
	out, err := render.HTML(msg.Text)
	if err != nil {
		out = render.Plain(msg.Text)
	}
	return Message{Message: msg, HTML: out}
}

// FromMessages converts a transcript in order.
func FromMessages(messages []chat.Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, FromMessage(msg))
	}
	return out
}

// NewSnapshot builds the attach payload from a subscription.
func NewSnapshot(sessionID string, sub *chatService.Subscription) Snapshot {
	return Snapshot{
		SessionID: sessionID,
		Messages:  FromMessages(sub.Messages),
		Draft:     sub.Draft,
	}
}

// EventPayload returns the wire name and body of a client event.
func EventPayload(ev chatService.Event) (string, any) {
	switch ev.Type {
	case chatService.EventMessage:
		return string(ev.Type), FromMessage(*ev.Message)
	default:
		return string(ev.Type), ev.Draft
	}
}
