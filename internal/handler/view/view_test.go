package view

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/meeting-agent/chatwidget/internal/model/chat"
	chatService "github.com/meeting-agent/chatwidget/internal/service/chat"
)

func TestFromMessageRendersOnlyAssistantMarkdown(t *testing.T) {
	user := FromMessage(chat.Message{Role: chat.RoleUser, Text: "**not bold**"})
	if strings.Contains(user.HTML, "<strong>") {
		t.Fatalf("user text should stay verbatim: %q", user.HTML)
	}

	assistant := FromMessage(chat.Message{Role: chat.RoleAssistant, Text: "**bold**"})
	if !strings.Contains(assistant.HTML, "<strong>bold</strong>") {
		t.Fatalf("assistant markdown not rendered: %q", assistant.HTML)
	}
	if assistant.Text != "**bold**" {
		t.Fatalf("plain text must be kept, got %q", assistant.Text)
	}
}

func TestEventPayload(t *testing.T) {
	msg := chat.Message{ID: 7, Role: chat.RoleUser, Text: "hi"}
	name, body := EventPayload(chatService.Event{Type: chatService.EventMessage, Message: &msg})
	if name != "message" {
		t.Fatalf("unexpected event name %q", name)
	}
	if got := body.(Message); got.ID != 7 {
		t.Fatalf("unexpected payload %+v", got)
	}

	draft := chat.Draft{Text: "x", UseRetrieval: true}
	name, body = EventPayload(chatService.Event{Type: chatService.EventDraft, Draft: &draft})
	if name != "draft" || body.(*chat.Draft).Text != "x" {
		t.Fatalf("unexpected draft payload %q %+v", name, body)
	}
}

func TestMessageCarriesSourceCountToThePage(t *testing.T) {
	raw, err := json.Marshal(FromMessage(chat.Message{Role: chat.RoleAssistant, Text: "10am daily", Retrieved: 2}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"retrieved":2`) {
		t.Fatalf("expected retrieved count in %s", raw)
	}
}
