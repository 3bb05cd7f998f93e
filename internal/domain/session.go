package domain

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CatalogSession is one visitor's browsing session. All access to its
// Selection goes through Do, which serializes concurrent requests. Do and
// Consume hand fn a working copy and keep it only when fn succeeds, so a
// failed call leaves the selection as it was.
type CatalogSession struct {
	SessionID string
	CreatedAt time.Time

	mu        sync.Mutex
	selection *Selection
	consumed  bool
}

// NewCatalogSession wraps a fresh selection in a session
func NewCatalogSession(sessionID string, selection *Selection, now time.Time) *CatalogSession {
	return &CatalogSession{
		SessionID: sessionID,
		CreatedAt: now,
		selection: selection,
	}
}

// Do runs fn with exclusive access to the selection
func (s *CatalogSession) Do(fn func(*Selection) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumed {
		return fmt.Errorf("%w: %s was checked out", ErrSessionNotFound, s.SessionID)
	}
	working := s.selection.Clone()
	if err := fn(working); err != nil {
		return err
	}
	s.selection = working
	return nil
}

// Consume is Do for checkout: once fn succeeds the session rejects every
// further call.
func (s *CatalogSession) Consume(fn func(*Selection) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumed {
		return fmt.Errorf("%w: %s was checked out", ErrSessionNotFound, s.SessionID)
	}
	working := s.selection.Clone()
	if err := fn(working); err != nil {
		return err
	}
	s.selection = working
	s.consumed = true
	return nil
}

// SessionStore keeps catalog sessions between requests. Sessions that are
// not touched within the store's TTL are discarded.
type SessionStore interface {
	// Put stores a session and restarts its TTL
	Put(ctx context.Context, session *CatalogSession) error

	// Get returns a session, nil when absent or expired
	Get(ctx context.Context, sessionID string) (*CatalogSession, error)

	// Delete discards a session
	Delete(ctx context.Context, sessionID string) error

	// Len returns the number of live sessions
	Len() int
}
