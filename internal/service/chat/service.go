package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meeting-agent/chatwidget/internal/model/chat"
)

var ErrSessionNotFound = errors.New("session not found")

// ClientFactory builds the client that backs a new page session.
type ClientFactory func() *Client

type sessionEntry struct {
	session chat.Session
	client  *Client
}

// Service keeps one chat client per open page session. Nothing outlives the
// process.
type Service struct {
	mu        sync.RWMutex
	sessions  map[string]*sessionEntry
	newClient ClientFactory
}

// NewService returns an empty session registry.
func NewService(factory ClientFactory) *Service {
	return &Service{
		sessions:  make(map[string]*sessionEntry),
		newClient: factory,
	}
}

// CreateSession provisions a session with a fresh client.
func (s *Service) CreateSession(_ context.Context) (chat.Session, *Client, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	client := s.newClient()

	s.mu.Lock()
	s.sessions[session.ID] = &sessionEntry{session: session, client: client}
	s.mu.Unlock()

	return session, client, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return entry.session, nil
}

// Client returns the chat client bound to a session.
func (s *Service) Client(_ context.Context, sessionID string) (*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry.client, nil
}

// LoadTranscript returns the messages of a session in display order.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	client, err := s.Client(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return client.Transcript(), nil
}

// CloseSession forgets a session. In-flight requests still finish but their
// replies are no longer observable.
func (s *Service) CloseSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// Len reports the number of open sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Wait blocks until the in-flight submissions of every open session have
// their replies appended.
func (s *Service) Wait() {
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.sessions))
	for _, entry := range s.sessions {
		clients = append(clients, entry.client)
	}
	s.mu.RUnlock()

	for _, client := range clients {
		client.Wait()
	}
}
