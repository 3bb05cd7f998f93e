package idempotency

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rezahawari/qurban-marketplace/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore lets a test override single operations
type mockStore struct {
	acquireFunc  func(ctx context.Context, record *Record) (*Record, bool, error)
	completeFunc func(ctx context.Context, id string, code int, body []byte, contentType string) error
	released     []string
}

func (m *mockStore) Acquire(ctx context.Context, record *Record) (*Record, bool, error) {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, record)
	}
	return record, true, nil
}

func (m *mockStore) Complete(ctx context.Context, id string, code int, body []byte, contentType string) error {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, id, code, body, contentType)
	}
	return nil
}

func (m *mockStore) Release(_ context.Context, id string) error {
	m.released = append(m.released, id)
	return nil
}

type harness struct {
	router  *gin.Engine
	calls   *atomic.Int32
	metrics *metrics.Metrics
}

func newHarness(config *Config, status int) harness {
	gin.SetMode(gin.TestMode)

	calls := &atomic.Int32{}
	m := metrics.New(metrics.DefaultConfig("test"))
	config.Metrics = m

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user", c.GetHeader("X-User-Email"))
	})
	router.Use(Middleware(config))
	router.POST("/checkout", func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(status, gin.H{"call": n})
	})
	router.GET("/checkout", func(c *gin.Context) {
		calls.Add(1)
		c.Status(http.StatusOK)
	})
	return harness{router: router, calls: calls, metrics: m}
}

func (h harness) do(method, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/checkout", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Email", "ahmad@example.com")
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareWithoutKey(t *testing.T) {
	h := newHarness(DefaultConfig(&mockStore{}), http.StatusCreated)
	assert.Equal(t, http.StatusCreated, h.do(http.MethodPost, "", `{}`).Code)

	config := DefaultConfig(&mockStore{})
	config.RequireKey = true
	h = newHarness(config, http.StatusCreated)
	rec := h.do(http.MethodPost, "", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "IDEMPOTENCY_KEY_REQUIRED")
	assert.Equal(t, int32(0), h.calls.Load())
}

func TestMiddlewareInvalidKey(t *testing.T) {
	h := newHarness(DefaultConfig(&mockStore{}), http.StatusCreated)
	rec := h.do(http.MethodPost, "invalid key with spaces", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "IDEMPOTENCY_KEY_INVALID")
}

func TestMiddlewareSkipsReads(t *testing.T) {
	store := &mockStore{acquireFunc: func(context.Context, *Record) (*Record, bool, error) {
		t.Fatal("GET must not touch the store")
		return nil, false, nil
	}}
	h := newHarness(DefaultConfig(store), http.StatusOK)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "k-1", "").Code)
}

func TestMiddlewareReplaysCompletedRequest(t *testing.T) {
	store := NewMemoryStore(16, time.Hour)
	h := newHarness(DefaultConfig(store), http.StatusCreated)

	first := h.do(http.MethodPost, "k-1", `{"a":1}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := h.do(http.MethodPost, "k-1", `{"a":1}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(HeaderReplayed))
	assert.Equal(t, int32(1), h.calls.Load())

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.IdempotencyRequests.WithLabelValues(OutcomeHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.IdempotencyRequests.WithLabelValues(OutcomeMiss)))
}

func TestMiddlewareParameterMismatch(t *testing.T) {
	store := NewMemoryStore(16, time.Hour)
	h := newHarness(DefaultConfig(store), http.StatusCreated)

	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "k-1", `{"a":1}`).Code)

	rec := h.do(http.MethodPost, "k-1", `{"a":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "IDEMPOTENCY_PARAMETER_MISMATCH")
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestMiddlewareConcurrentRequest(t *testing.T) {
	lockedAt := time.Now()
	store := &mockStore{acquireFunc: func(_ context.Context, record *Record) (*Record, bool, error) {
		locked := *record
		locked.LockedAt = &lockedAt
		return &locked, false, nil
	}}
	h := newHarness(DefaultConfig(store), http.StatusCreated)

	rec := h.do(http.MethodPost, "k-1", `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, int32(0), h.calls.Load())
}

func TestMiddlewareStaleLockIsTakenOver(t *testing.T) {
	lockedAt := time.Now().Add(-time.Hour)
	store := &mockStore{acquireFunc: func(_ context.Context, record *Record) (*Record, bool, error) {
		locked := *record
		locked.LockedAt = &lockedAt
		return &locked, false, nil
	}}
	h := newHarness(DefaultConfig(store), http.StatusCreated)

	assert.Equal(t, http.StatusCreated, h.do(http.MethodPost, "k-1", `{}`).Code)
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestMiddlewareReleasesServerErrors(t *testing.T) {
	store := &mockStore{}
	h := newHarness(DefaultConfig(store), http.StatusInternalServerError)

	h.do(http.MethodPost, "k-1", `{}`)
	assert.Equal(t, []string{RecordID("", "k-1")}, store.released)
}

func TestMiddlewareScopesKeysPerUser(t *testing.T) {
	store := NewMemoryStore(16, time.Hour)
	config := DefaultConfig(store)
	config.ScopeExtractor = func(c *gin.Context) string { return c.GetString("user") }
	h := newHarness(config, http.StatusCreated)

	h.do(http.MethodPost, "k-1", `{}`)
	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Email", "siti@example.com")
	req.Header.Set(HeaderIdempotencyKey, "k-1")
	h.router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, int32(2), h.calls.Load())
	assert.Equal(t, 2, store.Len())
}

func TestMiddlewareStorageFailure(t *testing.T) {
	store := &mockStore{acquireFunc: func(context.Context, *Record) (*Record, bool, error) {
		return nil, false, errors.New("mongo unavailable")
	}}
	h := newHarness(DefaultConfig(store), http.StatusCreated)

	rec := h.do(http.MethodPost, "k-1", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.IdempotencyRequests.WithLabelValues(OutcomeError)))
}

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore(16, time.Hour)
	ctx := context.Background()

	rec := &Record{ID: RecordID("u", "k"), Key: "k", Scope: "u", Fingerprint: "f"}
	got, isNew, err := store.Acquire(ctx, rec)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.True(t, got.IsLocked())

	_, isNew, err = store.Acquire(ctx, rec)
	require.NoError(t, err)
	assert.False(t, isNew)

	require.NoError(t, store.Complete(ctx, rec.ID, http.StatusCreated, []byte(`{}`), "application/json"))
	got, _, _ = store.Acquire(ctx, rec)
	assert.True(t, got.IsCompleted())
	assert.False(t, got.IsLocked())
	assert.Equal(t, http.StatusCreated, got.ResponseCode)

	require.NoError(t, store.Release(ctx, rec.ID))
	assert.Equal(t, 0, store.Len())
	assert.ErrorIs(t, store.Complete(ctx, rec.ID, 200, nil, ""), ErrNotFound)
}
