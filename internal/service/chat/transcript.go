package chat

import (
	"sync"
	"time"

	"github.com/meeting-agent/chatwidget/internal/model/chat"
)

// Transcript is the append-only message log of one chat client. Messages
// come back in insertion order and are never changed once appended.
type Transcript struct {
	mu       sync.RWMutex
	messages []chat.Message
	now      func() time.Time
	lastID   int64
}

// NewTranscript returns an empty transcript. now stamps message ids and
// timestamps; nil means time.Now.
func NewTranscript(now func() time.Time) *Transcript {
	if now == nil {
		now = time.Now
	}
	return &Transcript{
		messages: make([]chat.Message, 0, 16),
		now:      now,
	}
}

// Append stamps msg with the next id and its creation time and adds it to
// the end of the log.
func (t *Transcript) Append(msg chat.Message) chat.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts := t.now()
	msg.ID = t.nextIDLocked(ts)
	msg.CreatedAt = ts.UTC()
	t.messages = append(t.messages, msg)
	return msg
}

// Messages returns a copy of the log.
func (t *Transcript) Messages() []chat.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	copied := make([]chat.Message, len(t.messages))
	copy(copied, t.messages)
	return copied
}

// nextIDLocked derives the id from the wall clock in milliseconds and bumps
// it past the previous id when two appends land in the same millisecond.
func (t *Transcript) nextIDLocked(ts time.Time) int64 {
	id := ts.UnixMilli()
	if id <= t.lastID {
		id = t.lastID + 1
	}
	t.lastID = id
	return id
}
