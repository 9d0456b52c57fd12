package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeting-agent/chatwidget/internal/config"
	"github.com/meeting-agent/chatwidget/internal/model/chat"
)

type capturedRequest struct {
	method      string
	path        string
	contentType string
	body        map[string]any
}

func newBackend(t *testing.T, status int, reply string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.contentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.body)

		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestChatPostsQueryAsJSON(t *testing.T) {
	srv, captured := newBackend(t, http.StatusOK, `{"text":"10am daily","retrieved":[{"id":1},{"id":2}]}`)
	client := New(srv.URL + "/")

	resp, err := client.Chat(context.Background(), chat.Request{Query: "When is the standup?", UseRetrieval: true})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/chat", captured.path)
	assert.Equal(t, "application/json", captured.contentType)
	assert.Equal(t, map[string]any{"query": "When is the standup?", "use_retrieval": true}, captured.body)

	assert.Equal(t, "10am daily", resp.Text)
	assert.Len(t, resp.Retrieved, 2)
}

func TestChatSendsMaxContextItemsWhenSet(t *testing.T) {
	srv, captured := newBackend(t, http.StatusOK, `{}`)
	client := New(srv.URL)
	limit := 4

	_, err := client.Chat(context.Background(), chat.Request{Query: "q", MaxContextItems: &limit})
	require.NoError(t, err)

	assert.Equal(t, float64(4), captured.body["max_context_items"])
	assert.Equal(t, false, captured.body["use_retrieval"])
}

func TestChatToleratesMissingText(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `{"other":"field"}`)

	resp, err := New(srv.URL).Chat(context.Background(), chat.Request{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, chat.NoAnswer, resp.ReplyText())
}

func TestChatToleratesAnyJSONShape(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantReply string
		wantItems int
	}{
		{name: "array", body: `[]`, wantReply: chat.NoAnswer},
		{name: "string", body: `"hi"`, wantReply: chat.NoAnswer},
		{name: "number", body: `42`, wantReply: chat.NoAnswer},
		{name: "null", body: `null`, wantReply: chat.NoAnswer},
		{name: "numeric text", body: `{"text":5}`, wantReply: "5"},
		{name: "null text", body: `{"text":null}`, wantReply: chat.NoAnswer},
		{name: "object text", body: `{"text":{"a":1}}`, wantReply: chat.NoAnswer},
		{name: "retrieved of strings", body: `{"text":"ok","retrieved":["a"]}`, wantReply: "ok"},
		{name: "retrieved not a list", body: `{"text":"ok","retrieved":"none"}`, wantReply: "ok"},
		{name: "mixed retrieved", body: `{"text":"ok","retrieved":[{"id":1},"b",{"id":2}]}`, wantReply: "ok", wantItems: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newBackend(t, http.StatusOK, tt.body)

			resp, err := New(srv.URL).Chat(context.Background(), chat.Request{Query: "q"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantReply, resp.ReplyText())
			assert.Len(t, resp.Retrieved, tt.wantItems)
		})
	}
}

func TestChatEmptyBodyIsDecodeError(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, ``)

	_, err := New(srv.URL).Chat(context.Background(), chat.Request{Query: "q"})
	require.Error(t, err)
	assert.Equal(t, KindDecode, KindOf(err))
}

func TestChatNonJSONBodyIsDecodeError(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `<html>oops</html>`)

	_, err := New(srv.URL).Chat(context.Background(), chat.Request{Query: "q"})
	require.Error(t, err)
	assert.Equal(t, KindDecode, KindOf(err))
}

func TestChatConnectionRefusedIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Chat(context.Background(), chat.Request{Query: "q"})
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Contains(t, err.Error(), "connect")
}

func TestChatErrorStatusWithJSONIsParsedByDefault(t *testing.T) {
	srv, _ := newBackend(t, http.StatusInternalServerError, `{"text":"partial"}`)

	resp, err := New(srv.URL).Chat(context.Background(), chat.Request{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "partial", resp.Text)
}

func TestChatStrictStatusClassifiesErrorStatus(t *testing.T) {
	srv, _ := newBackend(t, http.StatusBadGateway, `{"text":"partial"}`)

	_, err := New(srv.URL, WithStrictStatus(true)).Chat(context.Background(), chat.Request{Query: "q"})
	require.Error(t, err)
	assert.Equal(t, KindStatus, KindOf(err))
	assert.True(t, strings.HasPrefix(err.Error(), "unexpected status 502"))

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusBadGateway, be.Status)
}

func TestNewFromConfigAppliesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = io.WriteString(w, `{"text":"late"}`)
	}))
	defer srv.Close()

	client := NewFromConfig(config.BackendConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, nil)
	_, err := client.Chat(context.Background(), chat.Request{Query: "q"})
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(io.EOF))
	assert.Equal(t, "decode", KindDecode.String())
}
