package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps records in an expiring LRU sized for a single process
type MemoryStore struct {
	mu      sync.Mutex
	records *expirable.LRU[string, Record]
	now     func() time.Time
}

// NewMemoryStore creates a store holding at most size records for retention
func NewMemoryStore(size int, retention time.Duration) *MemoryStore {
	return &MemoryStore{
		records: expirable.NewLRU[string, Record](size, nil, retention),
		now:     time.Now,
	}
}

// Acquire inserts the record when its id is free
func (s *MemoryStore) Acquire(_ context.Context, record *Record) (*Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records.Get(record.ID); ok {
		return &existing, false, nil
	}

	now := s.now().UTC()
	stored := *record
	stored.LockedAt = &now
	s.records.Add(stored.ID, stored)
	return &stored, true, nil
}

// Complete stores the response and clears the lock
func (s *MemoryStore) Complete(_ context.Context, id string, code int, body []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records.Get(id)
	if !ok {
		return ErrNotFound
	}

	now := s.now().UTC()
	record.LockedAt = nil
	record.CompletedAt = &now
	record.ResponseCode = code
	record.ResponseBody = append([]byte(nil), body...)
	record.ContentType = contentType
	s.records.Add(id, record)
	return nil
}

// Release forgets the record so the key can be retried
func (s *MemoryStore) Release(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records.Remove(id)
	return nil
}

// Len reports the number of live records
func (s *MemoryStore) Len() int {
	return s.records.Len()
}
