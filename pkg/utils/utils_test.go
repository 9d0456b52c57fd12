package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondError(t *testing.T) {
	rr := httptest.NewRecorder()
	if err := RespondError(rr, http.StatusNotFound, "session not found"); err != nil {
		t.Fatalf("RespondError err: %v", err)
	}

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body["error"] != "session not found" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestSendSSEEvent(t *testing.T) {
	rr := httptest.NewRecorder()
	SetupSSEHeaders(rr)

	if err := SendSSEEvent(rr, rr, "message", map[string]string{"text": "hi"}); err != nil {
		t.Fatalf("SendSSEEvent err: %v", err)
	}

	want := "event: message\ndata: {\"text\":\"hi\"}\n\n"
	if got := rr.Body.String(); got != want {
		t.Fatalf("unexpected frame %q, want %q", got, want)
	}
	if !rr.Flushed {
		t.Fatal("expected the event to be flushed")
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
}
