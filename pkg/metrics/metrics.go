package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the marketplace prometheus collectors
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// MongoDB
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec

	// Outbox
	OutboxPending   prometheus.Gauge
	OutboxPublished *prometheus.CounterVec
	OutboxRetries   prometheus.Counter

	// Circuit breaker
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec

	// Marketplace
	OrdersPlaced          *prometheus.CounterVec
	OrderRevenue          *prometheus.CounterVec
	OrderStatusChanges    *prometheus.CounterVec
	DocumentationAttached *prometheus.CounterVec
	CatalogSessionsActive prometheus.Gauge
	SelectionErrors       *prometheus.CounterVec
	QuotesComputed        prometheus.Counter

	// Idempotency
	IdempotencyRequests *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "qurban",
	}
}

// New creates the collectors and registers them on a private registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ns := config.Namespace
	service := prometheus.Labels{"service": config.ServiceName}

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: name, Help: help, ConstLabels: service}, labels)
	}
	histogram := func(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: name, Help: help, Buckets: buckets, ConstLabels: service}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: name, Help: help, ConstLabels: service})
	}

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,

		HTTPRequestsTotal: counter("http_requests_total", "Total number of HTTP requests", "method", "path", "status"),
		HTTPRequestDuration: histogram("http_request_duration_seconds", "HTTP request duration in seconds",
			[]float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}, "method", "path"),
		HTTPRequestsInFlight: gauge("http_requests_in_flight", "Number of HTTP requests currently being processed"),

		KafkaEventsPublished: counter("kafka_events_published_total", "Total number of Kafka events published", "topic", "event_type", "status"),
		KafkaPublishDuration: histogram("kafka_publish_duration_seconds", "Kafka publish duration in seconds",
			[]float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}, "topic"),

		MongoDBOperations: counter("mongodb_operations_total", "Total number of MongoDB operations", "collection", "operation", "status"),
		MongoDBOperationDuration: histogram("mongodb_operation_duration_seconds", "MongoDB operation duration in seconds",
			[]float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}, "collection", "operation"),

		OutboxPending:   gauge("outbox_pending_events", "Number of outbox events waiting to be published"),
		OutboxPublished: counter("outbox_events_published_total", "Total number of outbox events relayed", "event_type", "status"),
		OutboxRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "outbox_retries_total", Help: "Total number of outbox publish retries", ConstLabels: service,
		}),

		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Name: "circuit_breaker_state", Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)", ConstLabels: service,
		}, []string{"name"}),
		CircuitBreakerTrips: counter("circuit_breaker_trips_total", "Total number of circuit breaker trips", "name"),

		OrdersPlaced:          counter("orders_placed_total", "Total number of orders placed", "service_type"),
		OrderRevenue:          counter("order_revenue_total", "Sum of order grand totals", "service_type"),
		OrderStatusChanges:    counter("order_status_changes_total", "Total number of order status transitions", "status"),
		DocumentationAttached: counter("documentation_attached_total", "Total number of documentation uploads", "complete"),
		CatalogSessionsActive: gauge("catalog_sessions_active", "Number of live catalog sessions"),
		SelectionErrors:       counter("selection_errors_total", "Rejected catalog session mutations", "reason"),
		QuotesComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "quotes_computed_total", Help: "Total number of price quotes computed", ConstLabels: service,
		}),

		IdempotencyRequests: counter("idempotency_requests_total", "Mutating requests carrying an idempotency key", "outcome"),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.KafkaEventsPublished,
		m.KafkaPublishDuration,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.OutboxPending,
		m.OutboxPublished,
		m.OutboxRetries,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
		m.OrdersPlaced,
		m.OrderRevenue,
		m.OrderStatusChanges,
		m.DocumentationAttached,
		m.CatalogSessionsActive,
		m.SelectionErrors,
		m.QuotesComputed,
		m.IdempotencyRequests,
	)

	return m
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, code int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordKafkaPublish records a Kafka publish
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(topic, eventType, status(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

// RecordMongoDBOperation records a MongoDB operation
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	m.MongoDBOperations.WithLabelValues(collection, operation, status(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(collection, operation).Observe(duration.Seconds())
}

// SetOutboxPending sets the number of unpublished outbox events
func (m *Metrics) SetOutboxPending(count int64) {
	m.OutboxPending.Set(float64(count))
}

// RecordOutboxPublish records an outbox relay attempt
func (m *Metrics) RecordOutboxPublish(eventType string, success bool) {
	m.OutboxPublished.WithLabelValues(eventType, status(success)).Inc()
}

// RecordOutboxRetry records an outbox publish retry
func (m *Metrics) RecordOutboxRetry() {
	m.OutboxRetries.Inc()
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(name).Inc()
}

// RecordOrderPlaced records a checkout and its grand total
func (m *Metrics) RecordOrderPlaced(serviceType string, total float64) {
	m.OrdersPlaced.WithLabelValues(serviceType).Inc()
	m.OrderRevenue.WithLabelValues(serviceType).Add(total)
}

// RecordOrderStatusChange records a status transition
func (m *Metrics) RecordOrderStatusChange(to string) {
	m.OrderStatusChanges.WithLabelValues(to).Inc()
}

// RecordDocumentationAttached records a documentation upload
func (m *Metrics) RecordDocumentationAttached(complete bool) {
	m.DocumentationAttached.WithLabelValues(strconv.FormatBool(complete)).Inc()
}

// SetCatalogSessionsActive sets the number of live catalog sessions
func (m *Metrics) SetCatalogSessionsActive(count int) {
	m.CatalogSessionsActive.Set(float64(count))
}

// RecordSelectionError records a rejected selection mutation
func (m *Metrics) RecordSelectionError(reason string) {
	m.SelectionErrors.WithLabelValues(reason).Inc()
}

// RecordQuote records a computed price quote
func (m *Metrics) RecordQuote() {
	m.QuotesComputed.Inc()
}

// RecordIdempotency records how an idempotency-keyed request was served
func (m *Metrics) RecordIdempotency(outcome string) {
	m.IdempotencyRequests.WithLabelValues(outcome).Inc()
}
