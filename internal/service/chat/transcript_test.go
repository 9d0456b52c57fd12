package chat_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/meeting-agent/chatwidget/internal/model/chat"
	chat "github.com/meeting-agent/chatwidget/internal/service/chat"
)

func TestTranscriptAppendKeepsInsertionOrder(t *testing.T) {
	tr := chat.NewTranscript(fixedClock())
	assert.Empty(t, tr.Messages())

	for _, text := range []string{"one", "two", "two", "three"} {
		tr.Append(model.Message{Role: model.RoleUser, Text: text})
	}

	got := tr.Messages()
	require.Len(t, got, 4)
	assert.Equal(t, []string{"one", "two", "two", "three"}, texts(got))
}

func TestTranscriptIDsDeriveFromClockAndStayMonotonic(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tr := chat.NewTranscript(clock)

	first := tr.Append(model.Message{Text: "a"})
	second := tr.Append(model.Message{Text: "b"})
	now = now.Add(-time.Second)
	third := tr.Append(model.Message{Text: "c"})

	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, base, first.ID)
	assert.Equal(t, base+1, second.ID)
	assert.Equal(t, base+2, third.ID, "clock going backwards must not reuse ids")
}

func TestTranscriptMessagesReturnsCopy(t *testing.T) {
	tr := chat.NewTranscript(nil)
	tr.Append(model.Message{Text: "original"})

	got := tr.Messages()
	got[0].Text = "mutated"

	assert.Equal(t, "original", tr.Messages()[0].Text)
}

func TestTranscriptConcurrentAppendsAreUnique(t *testing.T) {
	tr := chat.NewTranscript(fixedClock())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Append(model.Message{Text: "x"})
		}()
	}
	wg.Wait()

	msgs := tr.Messages()
	require.Len(t, msgs, 50)
	assertStrictlyIncreasingIDs(t, msgs)
}

func texts(messages []model.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Text
	}
	return out
}
