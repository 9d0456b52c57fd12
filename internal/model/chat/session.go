package chat

import "time"

// Session captures one page session of the widget. Reloading the page
// starts a new one.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
