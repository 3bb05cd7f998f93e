package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rezahawari/qurban-marketplace/pkg/logging"
)

// Prefixes of admin-created entity ids
const (
	ProductIDPrefix = "P"
	FeeIDPrefix     = "F"
	UserIDPrefix    = "U"
	ArticleIDPrefix = "B"
)

// IDGenerator issues <prefix>-<unix millis> ids. Two ids requested in the
// same millisecond get consecutive values.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator creates a generator using the wall clock
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next returns a new id with the given prefix
func (g *IDGenerator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now().UnixMilli()
	if ts <= g.last {
		ts = g.last + 1
	}
	g.last = ts
	return fmt.Sprintf("%s-%d", prefix, ts)
}

// actor returns the email of the authenticated caller for audit logs
func actor(ctx context.Context) string {
	if email, ok := ctx.Value(logging.UserEmailKey).(string); ok && email != "" {
		return email
	}
	return "system"
}
