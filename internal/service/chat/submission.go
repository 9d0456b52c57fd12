package chat

import (
	"context"
	"sync"

	"github.com/meeting-agent/chatwidget/internal/model/chat"
)

// State is the lifecycle position of a Submission.
type State int

const (
	StatePending State = iota
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Submission tracks one query from the moment its user message is appended
// until its assistant reply is appended.
type Submission struct {
	ID      string
	Request chat.Request

	mu    sync.Mutex
	state State
	err   error
	reply chat.Message
	done  chan struct{}

	// filled in when the backend call returns; the reply may still be
	// held back behind earlier submissions
	settled   bool
	replyText string
	retrieved int
	outcome   error
}

func newSubmission(id string, req chat.Request) *Submission {
	return &Submission{
		ID:      id,
		Request: req,
		done:    make(chan struct{}),
	}
}

// Done is closed once the assistant reply is in the transcript.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the reply is appended or ctx ends.
func (s *Submission) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current lifecycle state.
func (s *Submission) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the backend failure, if the submission failed.
func (s *Submission) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Reply returns the assistant message appended for this submission. It is
// the zero Message while the submission is pending.
func (s *Submission) Reply() chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reply
}

func (s *Submission) settle(resp chat.Response, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settled = true
	s.outcome = err
	if err != nil {
		s.replyText = chat.ErrorPrefix + err.Error()
		return
	}
	s.replyText = resp.ReplyText()
	s.retrieved = len(resp.Retrieved)
}

func (s *Submission) isSettled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled
}

func (s *Submission) finish(reply chat.Message) {
	s.mu.Lock()
	s.reply = reply
	s.err = s.outcome
	if s.outcome != nil {
		s.state = StateFailed
	} else {
		s.state = StateSucceeded
	}
	s.mu.Unlock()
	close(s.done)
}
