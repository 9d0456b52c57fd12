package chat

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// Role identifies who authored a transcript entry. Only schema.User and
// schema.Assistant appear in a widget transcript.
type Role = schema.RoleType

const (
	RoleUser      Role = schema.User
	RoleAssistant Role = schema.Assistant
)

// NoAnswer is shown when the backend replies without any text.
const NoAnswer = "No answer"

// ErrorPrefix precedes the failure description of an unsuccessful submission.
const ErrorPrefix = "Error: "

// Message is a single immutable transcript entry.
type Message struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"requestId,omitempty"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Retrieved int       `json:"retrieved,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
