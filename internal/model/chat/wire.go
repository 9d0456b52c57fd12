package chat

import (
	"bytes"
	"encoding/json"
)

// Request is the body posted to the backend's /chat endpoint.
type Request struct {
	Query           string `json:"query"`
	UseRetrieval    bool   `json:"use_retrieval"`
	MaxContextItems *int   `json:"max_context_items,omitempty"`
}

// Response is the subset of the backend reply the widget understands. Any
// other fields are ignored.
type Response struct {
	Text      string           `json:"text"`
	Retrieved []map[string]any `json:"retrieved,omitempty"`
}

// UnmarshalJSON accepts any JSON value. Only an object contributes: its text
// field and the object entries of its retrieved list. Arrays, strings and
// numbers at the top level decode to an empty Response.
func (r *Response) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	*r = Response{}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	r.Text = textValue(obj["text"])
	if items, ok := obj["retrieved"].([]any); ok {
		for _, item := range items {
			if entry, ok := item.(map[string]any); ok {
				r.Retrieved = append(r.Retrieved, entry)
			}
		}
	}
	return nil
}

// textValue spells scalars the way they appear in the body. Falsy values
// (null, false, 0) and containers yield "", which ReplyText turns into
// NoAnswer.
func textValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
		return t.String()
	case bool:
		if t {
			return "true"
		}
	}
	return ""
}

// ReplyText returns the text to show for the response.
func (r Response) ReplyText() string {
	if r.Text == "" {
		return NoAnswer
	}
	return r.Text
}
