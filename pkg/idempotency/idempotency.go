// Package idempotency replays the stored response of a mutating request when
// a client retries it with the same Idempotency-Key header.
package idempotency

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultMaxKeyLength is the maximum length for an idempotency key
	DefaultMaxKeyLength = 255

	// DefaultLockTimeout is the age after which an unfinished lock is considered stale
	DefaultLockTimeout = time.Minute

	// DefaultRetentionPeriod is how long completed keys are replayable
	DefaultRetentionPeriod = 24 * time.Hour

	// DefaultMaxResponseSize is the maximum response size to cache (1MB)
	DefaultMaxResponseSize = 1 << 20
)

var (
	ErrKeyRequired = errors.New("idempotency key is required for this operation")
	ErrKeyInvalid  = errors.New("invalid idempotency key format")
	ErrKeyTooLong  = errors.New("idempotency key exceeds maximum length")
	ErrNotFound    = errors.New("idempotency key not found")
)

// Record is a stored idempotency key and, once completed, its response
type Record struct {
	ID          string     `bson:"_id" json:"id"`
	Key         string     `bson:"key" json:"key"`
	Scope       string     `bson:"scope" json:"scope"`
	Method      string     `bson:"method" json:"method"`
	Path        string     `bson:"path" json:"path"`
	Fingerprint string     `bson:"fingerprint" json:"fingerprint"`
	LockedAt    *time.Time `bson:"lockedAt,omitempty" json:"lockedAt,omitempty"`

	ResponseCode int    `bson:"responseCode,omitempty" json:"responseCode,omitempty"`
	ResponseBody []byte `bson:"responseBody,omitempty" json:"-"`
	ContentType  string `bson:"contentType,omitempty" json:"contentType,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	ExpiresAt   time.Time  `bson:"expiresAt" json:"expiresAt"`
}

// RecordID derives the storage id of a key within a scope
func RecordID(scope, key string) string {
	return scope + "|" + key
}

// IsCompleted returns true if the response has been stored
func (r *Record) IsCompleted() bool {
	return r.CompletedAt != nil
}

// IsLocked returns true if a request holding this key is still running
func (r *Record) IsLocked() bool {
	return r.LockedAt != nil && r.CompletedAt == nil
}

// Store persists idempotency records. Acquire must be atomic: it inserts the
// record when absent and reports whether the caller created it.
type Store interface {
	Acquire(ctx context.Context, record *Record) (*Record, bool, error)
	Complete(ctx context.Context, id string, code int, body []byte, contentType string) error
	Release(ctx context.Context, id string) error
}
