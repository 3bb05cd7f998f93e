package domain

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

const (
	orderIDPrefix   = "PYR-"
	orderIDMin      = 10000
	orderIDSpan     = 90000
	orderIDAttempts = 64
)

// OrderIDGenerator issues human-readable order ids (PYR-NNNNN) that are
// unique within the process.
type OrderIDGenerator struct {
	mu     sync.Mutex
	issued map[string]struct{}
	intn   func(n int) int
}

// NewOrderIDGenerator creates a generator backed by math/rand
func NewOrderIDGenerator() *OrderIDGenerator {
	return &OrderIDGenerator{
		issued: make(map[string]struct{}),
		intn:   rand.IntN,
	}
}

// Reserve marks ids as already in use, e.g. orders loaded from storage
func (g *OrderIDGenerator) Reserve(ids ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		g.issued[id] = struct{}{}
	}
}

// Next returns an id that has not been issued or reserved before
func (g *OrderIDGenerator) Next() (string, error) {
	if g == nil {
		return "", fmt.Errorf("%w: no order id generator", ErrIncompleteOrder)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < orderIDAttempts; i++ {
		id := fmt.Sprintf("%s%05d", orderIDPrefix, orderIDMin+g.intn(orderIDSpan))
		if _, taken := g.issued[id]; !taken {
			g.issued[id] = struct{}{}
			return id, nil
		}
	}
	return "", ErrOrderIDsExhausted
}
