package chat_test

import (
	"context"
	"sync"
	"time"

	model "github.com/meeting-agent/chatwidget/internal/model/chat"
)

type reply struct {
	resp model.Response
	err  error
}

// fakeBackend records requests and answers each query from a canned reply.
// Queries listed in gates block until their gate is released.
type fakeBackend struct {
	mu       sync.Mutex
	requests []model.Request
	replies  map[string]reply
	gates    map[string]chan struct{}
	fallback reply
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		replies: make(map[string]reply),
		gates:   make(map[string]chan struct{}),
	}
}

func (f *fakeBackend) reply(query string, resp model.Response, err error) *fakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[query] = reply{resp: resp, err: err}
	return f
}

func (f *fakeBackend) gate(query string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[query] = ch
	return ch
}

func (f *fakeBackend) Chat(_ context.Context, req model.Request) (model.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	gate := f.gates[req.Query]
	r, ok := f.replies[req.Query]
	if !ok {
		r = f.fallback
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return r.resp, r.err
}

func (f *fakeBackend) recorded() []model.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Request(nil), f.requests...)
}

type panicBackend struct{}

func (panicBackend) Chat(context.Context, model.Request) (model.Response, error) {
	panic("boom")
}

func fixedClock() func() time.Time {
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return base }
}
