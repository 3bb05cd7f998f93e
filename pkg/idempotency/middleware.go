package idempotency

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rezahawari/qurban-marketplace/pkg/errors"
	"github.com/rezahawari/qurban-marketplace/pkg/logging"
	"github.com/rezahawari/qurban-marketplace/pkg/metrics"
	"github.com/rezahawari/qurban-marketplace/pkg/middleware"
)

const (
	// HeaderIdempotencyKey is the HTTP header name for the idempotency key
	HeaderIdempotencyKey = "Idempotency-Key"

	// HeaderReplayed marks a response served from the store
	HeaderReplayed = "Idempotent-Replayed"
)

// Outcome labels recorded on the idempotency metric
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeMismatch = "mismatch"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Config holds configuration for the idempotency middleware
type Config struct {
	Store Store

	// RequireKey rejects mutating requests that carry no key
	RequireKey bool

	// ScopeExtractor namespaces keys, typically per user
	ScopeExtractor func(*gin.Context) string

	MaxKeyLength    int
	LockTimeout     time.Duration
	RetentionPeriod time.Duration
	MaxResponseSize int

	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

// DefaultConfig returns a default configuration backed by store
func DefaultConfig(store Store) *Config {
	return &Config{
		Store:           store,
		MaxKeyLength:    DefaultMaxKeyLength,
		LockTimeout:     DefaultLockTimeout,
		RetentionPeriod: DefaultRetentionPeriod,
		MaxResponseSize: DefaultMaxResponseSize,
		Logger:          logging.NewNop(),
	}
}

type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware returns a Gin middleware that replays completed requests
func Middleware(config *Config) gin.HandlerFunc {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.WithComponent("idempotency")

	record := func(outcome string) {
		if config.Metrics != nil {
			config.Metrics.RecordIdempotency(outcome)
		}
	}

	return func(c *gin.Context) {
		if !isMutatingMethod(c.Request.Method) {
			c.Next()
			return
		}

		key := NormalizeKey(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			if config.RequireKey {
				middleware.AbortWithAppError(c, errors.NewAppError("IDEMPOTENCY_KEY_REQUIRED", ErrKeyRequired.Error(), http.StatusBadRequest))
				return
			}
			c.Next()
			return
		}
		if err := ValidateKeyWithMaxLength(key, config.MaxKeyLength); err != nil {
			middleware.AbortWithAppError(c, errors.NewAppError("IDEMPOTENCY_KEY_INVALID", err.Error(), http.StatusBadRequest))
			return
		}

		var scope string
		if config.ScopeExtractor != nil {
			scope = config.ScopeExtractor(c)
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		ctx := c.Request.Context()
		now := time.Now().UTC()
		candidate := &Record{
			ID:          RecordID(scope, key),
			Key:         key,
			Scope:       scope,
			Method:      c.Request.Method,
			Path:        c.Request.URL.Path,
			Fingerprint: ComputeFingerprint(c.Request.Method, c.Request.URL.Path, body),
			CreatedAt:   now,
			ExpiresAt:   now.Add(config.RetentionPeriod),
		}

		existing, isNew, err := config.Store.Acquire(ctx, candidate)
		if err != nil {
			logger.WithContext(ctx).WithError(err).Error("Failed to acquire idempotency key", "key", key)
			record(OutcomeError)
			middleware.AbortWithAppError(c, errors.ErrServiceUnavailable("idempotency storage"))
			return
		}

		if !isNew {
			switch {
			case existing.Fingerprint != candidate.Fingerprint:
				record(OutcomeMismatch)
				middleware.AbortWithAppError(c, errors.NewAppError("IDEMPOTENCY_PARAMETER_MISMATCH",
					"request parameters differ from the original request with this idempotency key", http.StatusUnprocessableEntity))
				return
			case existing.IsCompleted():
				record(OutcomeHit)
				logger.WithContext(ctx).Info("Idempotent replay", "key", key, "status", existing.ResponseCode)
				c.Header(HeaderReplayed, "true")
				c.Data(existing.ResponseCode, existing.ContentType, existing.ResponseBody)
				c.Abort()
				return
			case existing.IsLocked() && time.Since(*existing.LockedAt) < config.LockTimeout:
				record(OutcomeConflict)
				middleware.AbortWithAppError(c, errors.NewAppError("IDEMPOTENCY_CONCURRENT_REQUEST",
					"a request with this idempotency key is currently being processed", http.StatusConflict))
				return
			}
			logger.WithContext(ctx).Warn("Taking over stale idempotency lock", "key", key)
		}

		record(OutcomeMiss)
		writer := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		storeCtx := context.WithoutCancel(ctx)
		status := writer.Status()
		if status >= http.StatusInternalServerError || writer.body.Len() > config.MaxResponseSize {
			if err := config.Store.Release(storeCtx, existing.ID); err != nil {
				logger.WithContext(ctx).WithError(err).Warn("Failed to release idempotency key", "key", key)
			}
			return
		}

		if err := config.Store.Complete(storeCtx, existing.ID, status, writer.body.Bytes(), writer.Header().Get("Content-Type")); err != nil {
			record(OutcomeError)
			logger.WithContext(ctx).WithError(err).Error("Failed to store idempotent response", "key", key)
		}
	}
}

func isMutatingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
