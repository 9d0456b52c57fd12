package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meeting-agent/chatwidget/internal/model/chat"
)

const defaultEventBuffer = 64

// Backend performs the single request/response exchange of a submission.
type Backend interface {
	Chat(ctx context.Context, req chat.Request) (chat.Response, error)
}

// Options configures a Client.
type Options struct {
	// DefaultRetrieval is the initial value of the retrieval flag.
	DefaultRetrieval bool
	// OrderedReplies holds back a reply until every earlier submission has
	// its reply in the transcript. Off by default: replies land in the order
	// the backend answers.
	OrderedReplies  bool
	MaxContextItems *int
	Logger          *zap.Logger
	Now             func() time.Time
}

// Client is the chat widget core: the composer draft, the transcript and the
// dispatch of submissions to the backend.
type Client struct {
	backend         Backend
	ordered         bool
	maxContextItems *int
	logger          *zap.Logger

	mu         sync.Mutex
	draft      chat.Draft
	transcript *Transcript
	pending    []*Submission
	subs       map[int]chan Event
	nextSubID  int

	inflight sync.WaitGroup
}

// NewClient creates a client with an empty transcript.
func NewClient(backend Backend, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		backend:         backend,
		ordered:         opts.OrderedReplies,
		maxContextItems: opts.MaxContextItems,
		logger:          logger,
		draft:           chat.Draft{UseRetrieval: opts.DefaultRetrieval},
		transcript:      NewTranscript(opts.Now),
		subs:            make(map[int]chan Event),
	}
}

// Draft returns the current composer state.
func (c *Client) Draft() chat.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetText replaces the draft text.
func (c *Client) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.draft.Text == text {
		return
	}
	c.draft.Text = text
	c.publishDraftLocked()
}

// SetRetrieval replaces the retrieval flag.
func (c *Client) SetRetrieval(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.draft.UseRetrieval == enabled {
		return
	}
	c.draft.UseRetrieval = enabled
	c.publishDraftLocked()
}

// Transcript returns a copy of the messages appended so far.
func (c *Client) Transcript() []chat.Message {
	return c.transcript.Messages()
}

// Submit sends the draft. When the trimmed draft is empty nothing happens
// and ok is false. Otherwise the user message is appended before Submit
// returns and the backend call runs in the background; the returned
// Submission reports when its reply has been appended.
//
// ctx only carries values to the backend call. Cancelling it does not abort
// the request.
func (c *Client) Submit(ctx context.Context) (sub *Submission, ok bool) {
	c.mu.Lock()

	query := c.draft.Query()
	if query == "" {
		c.mu.Unlock()
		return nil, false
	}

	req := chat.Request{
		Query:           query,
		UseRetrieval:    c.draft.UseRetrieval,
		MaxContextItems: c.maxContextItems,
	}
	sub = newSubmission(uuid.NewString(), req)

	msg := c.transcript.Append(chat.Message{
		RequestID: sub.ID,
		Role:      chat.RoleUser,
		Text:      query,
	})
	c.publishLocked(Event{Type: EventMessage, Message: &msg})

	if c.ordered {
		c.pending = append(c.pending, sub)
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	c.logger.Debug("submission dispatched",
		zap.String("request_id", sub.ID),
		zap.Bool("use_retrieval", req.UseRetrieval),
	)

	go c.dispatch(context.WithoutCancel(ctx), sub)
	return sub, true
}

// Wait blocks until every submission made so far has its reply appended.
func (c *Client) Wait() {
	c.inflight.Wait()
}

// Subscribe returns the current transcript and draft together with a channel
// of every later event. buffer <= 0 selects a default size. A subscriber
// that lets its buffer fill up is dropped and its channel closed.
func (c *Client) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	ch := make(chan Event, buffer)
	c.subs[id] = ch

	var once sync.Once
	return &Subscription{
		Messages: c.transcript.Messages(),
		Draft:    c.draft,
		Events:   ch,
		close: func() {
			once.Do(func() {
				c.mu.Lock()
				defer c.mu.Unlock()
				c.dropSubscriberLocked(id)
			})
		},
	}
}

func (c *Client) dispatch(ctx context.Context, sub *Submission) {
	defer c.inflight.Done()

	resp, err := c.callBackend(ctx, sub.Request)
	sub.settle(resp, err)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.logger.Debug("submission failed", zap.String("request_id", sub.ID), zap.Error(err))
	} else {
		c.draft.Text = ""
		c.publishDraftLocked()
	}

	if !c.ordered {
		c.appendReplyLocked(sub)
		return
	}

	for len(c.pending) > 0 && c.pending[0].isSettled() {
		head := c.pending[0]
		c.pending[0] = nil
		c.pending = c.pending[1:]
		c.appendReplyLocked(head)
	}
}

// callBackend turns a panicking backend into an ordinary failure so a
// submission always ends with exactly one reply.
func (c *Client) callBackend(ctx context.Context, req chat.Request) (resp chat.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
	}()
	return c.backend.Chat(ctx, req)
}

func (c *Client) appendReplyLocked(sub *Submission) {
	sub.mu.Lock()
	text, retrieved := sub.replyText, sub.retrieved
	sub.mu.Unlock()

	reply := c.transcript.Append(chat.Message{
		RequestID: sub.ID,
		Role:      chat.RoleAssistant,
		Text:      text,
		Retrieved: retrieved,
	})
	c.publishLocked(Event{Type: EventMessage, Message: &reply})
	sub.finish(reply)

	c.logger.Debug("submission settled",
		zap.String("request_id", sub.ID),
		zap.Stringer("state", sub.State()),
	)
}

func (c *Client) publishDraftLocked() {
	draft := c.draft
	c.publishLocked(Event{Type: EventDraft, Draft: &draft})
}

func (c *Client) publishLocked(ev Event) {
	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.logger.Warn("dropping slow transcript subscriber", zap.Int("subscriber", id))
			c.dropSubscriberLocked(id)
		}
	}
}

func (c *Client) dropSubscriberLocked(id int) {
	ch, ok := c.subs[id]
	if !ok {
		return
	}
	delete(c.subs, id)
	close(ch)
}
