package chat

import "strings"

// Draft is the composer state: the text being typed and whether the next
// query should use retrieval.
type Draft struct {
	Text         string `json:"text"`
	UseRetrieval bool   `json:"useRetrieval"`
}

// Query returns the draft text as it would be sent, or "" when there is
// nothing to send.
func (d Draft) Query() string {
	return strings.TrimSpace(d.Text)
}
