package outbox

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MemoryRepository is an in-process Repository
type MemoryRepository struct {
	mu     sync.RWMutex
	events map[string]*Event
}

// NewMemoryRepository creates an empty in-memory outbox
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{events: make(map[string]*Event)}
}

func (r *MemoryRepository) SaveAll(_ context.Context, events []*Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range events {
		stored := *event
		r.events[event.ID] = &stored
	}
	return nil
}

func (r *MemoryRepository) sorted(keep func(*Event) bool) []*Event {
	var out []*Event
	for _, event := range r.events {
		if keep(event) {
			copied := *event
			out = append(out, &copied)
		}
	}
	slices.SortFunc(out, func(a, b *Event) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

func (r *MemoryRepository) FindUnpublished(_ context.Context, limit int) ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := r.sorted((*Event).ShouldRetry)
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *MemoryRepository) CountUnpublished(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, event := range r.events {
		if event.ShouldRetry() {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) update(eventID string, apply func(*Event)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[eventID]
	if !ok {
		return fmt.Errorf("event not found: %s", eventID)
	}
	apply(event)
	return nil
}

func (r *MemoryRepository) MarkPublished(_ context.Context, eventID string) error {
	return r.update(eventID, func(e *Event) {
		now := time.Now().UTC()
		e.PublishedAt = &now
	})
}

func (r *MemoryRepository) IncrementRetry(_ context.Context, eventID string, errorMsg string) error {
	return r.update(eventID, func(e *Event) {
		e.RetryCount++
		e.LastError = errorMsg
	})
}

func (r *MemoryRepository) DeletePublished(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, event := range r.events {
		if event.PublishedAt != nil && event.PublishedAt.Before(before) {
			delete(r.events, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) FindByAggregateID(_ context.Context, aggregateID string) ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(e *Event) bool { return e.AggregateID == aggregateID }), nil
}
