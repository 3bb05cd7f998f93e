package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecorders(t *testing.T) {
	m := New(DefaultConfig("qurban-marketplace"))

	m.RecordOrderPlaced("kurban", 317.5)
	m.RecordOrderPlaced("kurban", 100)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OrdersPlaced.WithLabelValues("kurban")))
	assert.Equal(t, 417.5, testutil.ToFloat64(m.OrderRevenue.WithLabelValues("kurban")))

	m.RecordDocumentationAttached(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentationAttached.WithLabelValues("false")))

	m.SetCatalogSessionsActive(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CatalogSessionsActive))

	m.SetOutboxPending(7)
	m.RecordOutboxPublish("qurban.order.placed", true)
	m.RecordOutboxRetry()
	assert.Equal(t, 7.0, testutil.ToFloat64(m.OutboxPending))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxPublished.WithLabelValues("qurban.order.placed", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxRetries))

	m.RecordIdempotency("hit")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdempotencyRequests.WithLabelValues("hit")))

	m.RecordSelectionError("LIMIT_REACHED")
	m.RecordQuote()
	m.RecordOrderStatusChange("paid")
	m.SetCircuitBreakerState("kafka", 2)
	m.RecordCircuitBreakerTrip("kafka")
	m.RecordKafkaPublish("qurban.orders.events", "qurban.order.placed", false, time.Millisecond)
	m.RecordMongoDBOperation("orders", "save", true, time.Millisecond)
	m.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
	m.IncrementHTTPRequestsInFlight()
	m.DecrementHTTPRequestsInFlight()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("kafka")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KafkaEventsPublished.WithLabelValues("qurban.orders.events", "qurban.order.placed", "error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestMetricsHandler(t *testing.T) {
	m := New(DefaultConfig("qurban-marketplace"))
	m.RecordQuote()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "qurban_quotes_computed_total")
	assert.Contains(t, rec.Body.String(), `service="qurban-marketplace"`)
	assert.NotNil(t, m.Registry())
}
