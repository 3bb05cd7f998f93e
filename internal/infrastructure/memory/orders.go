package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/internal/infrastructure/orderevents"
	"github.com/rezahawari/qurban-marketplace/pkg/cloudevents"
	"github.com/rezahawari/qurban-marketplace/pkg/outbox"
)

// OrderRepository implements domain.OrderRepository. Pending domain events
// are written to the outbox repository under the same lock as the order.
type OrderRepository struct {
	mu           sync.RWMutex
	orders       map[string]*domain.Order
	outboxRepo   outbox.Repository
	eventFactory *cloudevents.EventFactory
}

// NewOrderRepository creates an empty OrderRepository
func NewOrderRepository(outboxRepo outbox.Repository, eventFactory *cloudevents.EventFactory) *OrderRepository {
	return &OrderRepository{
		orders:       make(map[string]*domain.Order),
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}
}

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	c.AppliedFees = slices.Clone(o.AppliedFees)
	c.Beneficiaries = slices.Clone(o.Beneficiaries)
	if o.Documentation != nil {
		doc := *o.Documentation
		doc.Photos = slices.Clone(o.Documentation.Photos)
		c.Documentation = &doc
	}
	c.ClearDomainEvents()
	return &c
}

// Save persists an order and its pending domain events
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	var events []*outbox.Event
	if r.outboxRepo != nil && r.eventFactory != nil {
		var err error
		events, err = orderevents.ToOutbox(ctx, r.eventFactory, order)
		if err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(events) > 0 {
		if err := r.outboxRepo.SaveAll(ctx, events); err != nil {
			return fmt.Errorf("failed to save outbox events: %w", err)
		}
	}
	r.orders[order.OrderID] = copyOrder(order)
	order.ClearDomainEvents()
	return nil
}

// FindByID retrieves an order by ID
func (r *OrderRepository) FindByID(_ context.Context, orderID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if o, ok := r.orders[orderID]; ok {
		return copyOrder(o), nil
	}
	return nil, nil
}

// FindAll returns orders newest first
func (r *OrderRepository) FindAll(_ context.Context, filter domain.OrderFilter, pagination domain.Pagination) ([]*domain.Order, error) {
	r.mu.RLock()
	matched := make([]*domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if filter.Matches(o) {
			matched = append(matched, o)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *domain.Order) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.OrderID, a.OrderID))
	})

	skip := pagination.Skip()
	if skip >= int64(len(matched)) {
		return []*domain.Order{}, nil
	}
	matched = matched[skip:]
	if limit := pagination.Limit(); limit > 0 && limit < int64(len(matched)) {
		matched = matched[:limit]
	}

	out := make([]*domain.Order, len(matched))
	for i, o := range matched {
		out[i] = copyOrder(o)
	}
	return out, nil
}

// Count returns total count matching filter
func (r *OrderRepository) Count(_ context.Context, filter domain.OrderFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, o := range r.orders {
		if filter.Matches(o) {
			n++
		}
	}
	return n, nil
}

var _ domain.OrderRepository = (*OrderRepository)(nil)
