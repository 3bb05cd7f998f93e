package memory

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
)

// SessionStore keeps catalog sessions in an expiring LRU. Put on an existing
// session restarts its TTL.
type SessionStore struct {
	sessions *expirable.LRU[string, *domain.CatalogSession]
}

// NewSessionStore creates a store holding at most size sessions, each
// expiring ttl after its last Put
func NewSessionStore(size int, ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: expirable.NewLRU[string, *domain.CatalogSession](size, nil, ttl),
	}
}

// Put stores a session
func (s *SessionStore) Put(_ context.Context, session *domain.CatalogSession) error {
	s.sessions.Add(session.SessionID, session)
	return nil
}

// Get returns a session, nil when absent or expired
func (s *SessionStore) Get(_ context.Context, sessionID string) (*domain.CatalogSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil
	}
	return session, nil
}

// Delete discards a session
func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.sessions.Remove(sessionID)
	return nil
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	return s.sessions.Len()
}

var _ domain.SessionStore = (*SessionStore)(nil)
