package chat

import (
	"encoding/json"
	"testing"
)

func TestResponseDecodesLeniently(t *testing.T) {
	cases := []struct {
		body      string
		wantText  string
		wantReply string
		wantItems int
	}{
		{body: `{"text":"10am daily"}`, wantText: "10am daily", wantReply: "10am daily"},
		{body: `{}`, wantReply: NoAnswer},
		{body: `[]`, wantReply: NoAnswer},
		{body: `"hi"`, wantReply: NoAnswer},
		{body: `{"text":5}`, wantText: "5", wantReply: "5"},
		{body: `{"text":1.5}`, wantText: "1.5", wantReply: "1.5"},
		{body: `{"text":0}`, wantReply: NoAnswer},
		{body: `{"text":true}`, wantText: "true", wantReply: "true"},
		{body: `{"text":false}`, wantReply: NoAnswer},
		{body: `{"text":"ok","retrieved":["a"]}`, wantText: "ok", wantReply: "ok"},
		{body: `{"text":"ok","retrieved":[{"id":1},{"id":2}]}`, wantText: "ok", wantReply: "ok", wantItems: 2},
	}

	for _, tc := range cases {
		var resp Response
		if err := json.Unmarshal([]byte(tc.body), &resp); err != nil {
			t.Fatalf("%s: unexpected error %v", tc.body, err)
		}
		if resp.Text != tc.wantText {
			t.Fatalf("%s: text = %q, want %q", tc.body, resp.Text, tc.wantText)
		}
		if got := resp.ReplyText(); got != tc.wantReply {
			t.Fatalf("%s: reply = %q, want %q", tc.body, got, tc.wantReply)
		}
		if len(resp.Retrieved) != tc.wantItems {
			t.Fatalf("%s: retrieved = %d, want %d", tc.body, len(resp.Retrieved), tc.wantItems)
		}
	}
}

func TestResponseRejectsInvalidJSON(t *testing.T) {
	var resp Response
	if err := json.Unmarshal([]byte(`<html>`), &resp); err == nil {
		t.Fatal("expected a syntax error")
	}
}
