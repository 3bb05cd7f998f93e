package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// OrderPlacedEvent is emitted when checkout materializes an order
type OrderPlacedEvent struct {
	OrderID       string          `json:"orderId"`
	CustomerEmail string          `json:"customerEmail"`
	ServiceType   ServiceType     `json:"serviceType"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Beneficiaries int             `json:"beneficiaries"`
	PlacedAt      time.Time       `json:"placedAt"`
}

func (e *OrderPlacedEvent) EventType() string    { return "qurban.order.placed" }
func (e *OrderPlacedEvent) OccurredAt() time.Time { return e.PlacedAt }

// OrderStatusChangedEvent is emitted on every status transition
type OrderStatusChangedEvent struct {
	OrderID   string      `json:"orderId"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ChangedAt time.Time   `json:"changedAt"`
}

func (e *OrderStatusChangedEvent) EventType() string    { return "qurban.order.status-changed" }
func (e *OrderStatusChangedEvent) OccurredAt() time.Time { return e.ChangedAt }

// OrderCompletedEvent is emitted when documentation completes an order
type OrderCompletedEvent struct {
	OrderID     string    `json:"orderId"`
	EarTag      string    `json:"earTag"`
	PhotoCount  int       `json:"photoCount"`
	CompletedAt time.Time `json:"completedAt"`
}

func (e *OrderCompletedEvent) EventType() string    { return "qurban.order.completed" }
func (e *OrderCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// OrderDocumentationUpdatedEvent is emitted when documentation of a
// completed order is replaced
type OrderDocumentationUpdatedEvent struct {
	OrderID    string    `json:"orderId"`
	EarTag     string    `json:"earTag"`
	PhotoCount int       `json:"photoCount"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (e *OrderDocumentationUpdatedEvent) EventType() string {
	return "qurban.order.documentation-updated"
}
func (e *OrderDocumentationUpdatedEvent) OccurredAt() time.Time { return e.UpdatedAt }
