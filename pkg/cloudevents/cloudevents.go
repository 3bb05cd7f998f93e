package cloudevents

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rezahawari/qurban-marketplace/pkg/logging"
)

// Event types published by the marketplace
const (
	OrderPlaced               = "qurban.order.placed"
	OrderStatusChanged        = "qurban.order.status-changed"
	OrderCompleted            = "qurban.order.completed"
	OrderDocumentationUpdated = "qurban.order.documentation-updated"
)

// SourceMarketplace is the source attribute of every marketplace event
const SourceMarketplace = "/qurban/marketplace"

// SpecVersion is the CloudEvents version emitted
const SpecVersion = "1.0"

// Extension attribute names
const (
	ExtCorrelationID = "qurbancorrelationid"
	ExtOrderID       = "qurbanorderid"
)

// CloudEvent is a CloudEvents v1.0 structured-mode event
type CloudEvent struct {
	SpecVersion     string    `json:"specversion" bson:"specversion"`
	Type            string    `json:"type" bson:"type"`
	Source          string    `json:"source" bson:"source"`
	Subject         string    `json:"subject,omitempty" bson:"subject,omitempty"`
	ID              string    `json:"id" bson:"id"`
	Time            time.Time `json:"time" bson:"time"`
	DataContentType string    `json:"datacontenttype" bson:"datacontenttype"`
	Data            any       `json:"data" bson:"data"`

	CorrelationID string `json:"qurbancorrelationid,omitempty" bson:"qurbancorrelationid,omitempty"`
	OrderID       string `json:"qurbanorderid,omitempty" bson:"qurbanorderid,omitempty"`
}

// Validate checks the required context attributes
func (e *CloudEvent) Validate() error {
	switch {
	case e.ID == "":
		return errors.New("cloudevent id is required")
	case e.Type == "":
		return errors.New("cloudevent type is required")
	case e.Source == "":
		return errors.New("cloudevent source is required")
	case e.SpecVersion != SpecVersion:
		return errors.New("unsupported cloudevent specversion")
	}
	return nil
}

// Extensions returns the populated extension attributes keyed by name
func (e *CloudEvent) Extensions() map[string]string {
	ext := make(map[string]string, 2)
	if e.CorrelationID != "" {
		ext[ExtCorrelationID] = e.CorrelationID
	}
	if e.OrderID != "" {
		ext[ExtOrderID] = e.OrderID
	}
	return ext
}

// EventFactory creates CloudEvents for a single source
type EventFactory struct {
	source string
	now    func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source, now: time.Now}
}

// CreateEvent builds an event; the correlation id of the request, when
// present on ctx, is carried as an extension
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data any) *CloudEvent {
	event := &CloudEvent{
		SpecVersion:     SpecVersion,
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}
	if correlationID, ok := ctx.Value(logging.CorrelationIDKey).(string); ok {
		event.CorrelationID = correlationID
	}
	return event
}

// CreateOrderEvent builds an event about one order
func (f *EventFactory) CreateOrderEvent(ctx context.Context, eventType, orderID string, data any) *CloudEvent {
	event := f.CreateEvent(ctx, eventType, "order/"+orderID, data)
	event.OrderID = orderID
	return event
}
