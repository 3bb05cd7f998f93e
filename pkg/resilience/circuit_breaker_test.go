package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rezahawari/qurban-marketplace/pkg/metrics"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBroker = errors.New("broker unavailable")

func TestCircuitBreakerTripsOnConsecutiveFailures(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("test"))
	config := DefaultCircuitBreakerConfig("kafka-producer")
	config.FailureThreshold = 2
	cb := NewCircuitBreaker(config, nil, m)

	fail := func(context.Context) error { return errBroker }
	assert.ErrorIs(t, cb.Execute(context.Background(), fail), errBroker)
	assert.ErrorIs(t, cb.Execute(context.Background(), fail), errBroker)
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	called := false
	err := cb.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CircuitBreakerTrips.WithLabelValues("kafka-producer")))
	assert.Equal(t, float64(gobreaker.StateOpen), testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("kafka-producer")))
}

func TestCircuitBreakerPassesSuccess(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("mongodb"), nil, nil)
	require.NoError(t, cb.Execute(context.Background(), func(context.Context) error { return nil }))
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.Counts().TotalSuccesses)
	assert.Equal(t, "mongodb", cb.Name())
}

func TestRetry(t *testing.T) {
	config := &RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2}

	attempts := 0
	err := Retry(context.Background(), config, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errBroker
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	err = Retry(context.Background(), config, func(context.Context) error {
		attempts++
		return errBroker
	})
	assert.ErrorIs(t, err, errBroker)
	assert.Equal(t, 3, attempts)
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	config := DefaultRetryConfig()
	config.RetryableErrors = func(err error) bool { return !errors.Is(err, errBroker) }

	attempts := 0
	err := Retry(context.Background(), config, func(context.Context) error {
		attempts++
		return errBroker
	})
	assert.ErrorIs(t, err, errBroker)
	assert.Equal(t, 1, attempts)
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, DefaultRetryConfig(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
