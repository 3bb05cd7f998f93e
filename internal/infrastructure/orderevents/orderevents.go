// Package orderevents turns pending order domain events into outbox entries.
package orderevents

import (
	"context"
	"fmt"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/pkg/cloudevents"
	"github.com/rezahawari/qurban-marketplace/pkg/kafka"
	"github.com/rezahawari/qurban-marketplace/pkg/outbox"
)

// AggregateType is the outbox aggregate type of orders
const AggregateType = "Order"

// ToOutbox converts the pending domain events of order into outbox events
// bound for the orders topic. Unknown event types are skipped.
func ToOutbox(ctx context.Context, factory *cloudevents.EventFactory, order *domain.Order) ([]*outbox.Event, error) {
	domainEvents := order.DomainEvents()
	if len(domainEvents) == 0 {
		return nil, nil
	}

	events := make([]*outbox.Event, 0, len(domainEvents))
	for _, event := range domainEvents {
		var cloudEvent *cloudevents.CloudEvent
		switch e := event.(type) {
		case *domain.OrderPlacedEvent:
			cloudEvent = factory.CreateOrderEvent(ctx, cloudevents.OrderPlaced, e.OrderID, e)
		case *domain.OrderStatusChangedEvent:
			cloudEvent = factory.CreateOrderEvent(ctx, cloudevents.OrderStatusChanged, e.OrderID, e)
		case *domain.OrderCompletedEvent:
			cloudEvent = factory.CreateOrderEvent(ctx, cloudevents.OrderCompleted, e.OrderID, e)
		case *domain.OrderDocumentationUpdatedEvent:
			cloudEvent = factory.CreateOrderEvent(ctx, cloudevents.OrderDocumentationUpdated, e.OrderID, e)
		default:
			continue
		}

		outboxEvent, err := outbox.NewEventFromCloudEvent(order.OrderID, AggregateType, kafka.Topics.OrdersEvents, cloudEvent)
		if err != nil {
			return nil, fmt.Errorf("failed to create outbox event: %w", err)
		}
		events = append(events, outboxEvent)
	}
	return events, nil
}
