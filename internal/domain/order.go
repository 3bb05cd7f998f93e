package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusPaid:       1,
	OrderStatusProcessing: 2,
	OrderStatusCompleted:  3,
}

// IsValid checks if the status is a known order status
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusRank[s]
	return ok
}

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted
}

// Customer is the authenticated buyer placing an order
type Customer struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

// Documentation is proof of execution attached by an administrator
type Documentation struct {
	Photos         []string  `bson:"photos" json:"photos"`
	Video          string    `bson:"video,omitempty" json:"video,omitempty"`
	YouTubeURL     string    `bson:"youtubeUrl,omitempty" json:"youtubeUrl,omitempty"`
	EarTag         string    `bson:"earTag" json:"earTag"`
	CertificateURL string    `bson:"certificateUrl,omitempty" json:"certificateUrl,omitempty"`
	AttachedAt     time.Time `bson:"attachedAt" json:"attachedAt"`
}

// IsIncomplete reports whether the documentation has no photos
func (d *Documentation) IsIncomplete() bool {
	return len(d.Photos) == 0
}

// Order is a confirmed purchase. Pricing, beneficiary and fee fields are a
// snapshot taken at checkout and are never recomputed.
type Order struct {
	OrderID       string          `bson:"orderId" json:"orderId"`
	CustomerName  string          `bson:"customerName" json:"customerName"`
	CustomerEmail string          `bson:"customerEmail" json:"customerEmail"`
	ServiceType   ServiceType     `bson:"serviceType" json:"serviceType"`
	ProductID     string          `bson:"productId" json:"productId"`
	AnimalType    AnimalType      `bson:"animalType" json:"animalType"`
	Weight        decimal.Decimal `bson:"weight" json:"weight"`
	LocationID    string          `bson:"locationId" json:"locationId"`
	Location      string          `bson:"location" json:"location"`
	BasePrice     decimal.Decimal `bson:"basePrice" json:"basePrice"`
	AppliedFees   []AppliedFee    `bson:"appliedFees" json:"appliedFees"`
	TotalPrice    decimal.Decimal `bson:"totalPrice" json:"totalPrice"`
	Beneficiaries []string        `bson:"beneficiaries" json:"beneficiaries"`
	Status        OrderStatus     `bson:"status" json:"status"`
	Documentation *Documentation  `bson:"documentation,omitempty" json:"documentation,omitempty"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time       `bson:"updatedAt" json:"updatedAt"`

	domainEvents []DomainEvent `bson:"-" json:"-"`
}

// Materialize converts a completed selection and its computed totals into a
// pending order. Totals are copied as given.
func Materialize(selection *Selection, customer *Customer, totals FeeBreakdown, ids *OrderIDGenerator) (*Order, error) {
	if customer == nil || strings.TrimSpace(customer.Email) == "" {
		return nil, fmt.Errorf("%w: no authenticated customer", ErrIncompleteOrder)
	}
	if selection == nil {
		return nil, fmt.Errorf("%w: no selection", ErrIncompleteOrder)
	}

	beneficiaries := make([]string, 0, len(selection.beneficiaries))
	for _, name := range selection.beneficiaries {
		if name = strings.TrimSpace(name); name != "" {
			beneficiaries = append(beneficiaries, name)
		}
	}
	if len(beneficiaries) == 0 {
		return nil, fmt.Errorf("%w: at least one beneficiary name is required", ErrIncompleteOrder)
	}

	product := selection.Product()
	if product == nil {
		return nil, fmt.Errorf("%w: no product selected", ErrInvalidSelection)
	}
	variant, err := product.Variant(selection.VariantIndex())
	if err != nil {
		return nil, err
	}
	location, ok := selection.Location()
	if !ok {
		return nil, fmt.Errorf("%w: unknown location %q", ErrInvalidSelection, selection.LocationID())
	}
	if totals.GrandTotal.IsNegative() {
		return nil, fmt.Errorf("%w: grand total %s is negative", ErrInvalidAmount, totals.GrandTotal)
	}

	orderID, err := ids.Next()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &Order{
		OrderID:       orderID,
		CustomerName:  strings.TrimSpace(customer.Name),
		CustomerEmail: strings.TrimSpace(customer.Email),
		ServiceType:   selection.ServiceType(),
		ProductID:     product.ProductID,
		AnimalType:    product.AnimalType,
		Weight:        variant.Weight,
		LocationID:    location.LocationID,
		Location:      location.Name,
		BasePrice:     totals.BaseAmount,
		AppliedFees:   append([]AppliedFee(nil), totals.AppliedFees...),
		TotalPrice:    totals.GrandTotal,
		Beneficiaries: beneficiaries,
		Status:        OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		domainEvents:  make([]DomainEvent, 0),
	}
	if order.AppliedFees == nil {
		order.AppliedFees = []AppliedFee{}
	}

	order.addDomainEvent(&OrderPlacedEvent{
		OrderID:       order.OrderID,
		CustomerEmail: order.CustomerEmail,
		ServiceType:   order.ServiceType,
		TotalPrice:    order.TotalPrice,
		Beneficiaries: len(order.Beneficiaries),
		PlacedAt:      now,
	})

	return order, nil
}

// AdvanceStatus moves the order forward. Completion is only reachable
// through AttachDocumentation.
func (o *Order) AdvanceStatus(next OrderStatus) error {
	if !next.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, next)
	}
	if next == OrderStatusCompleted {
		return fmt.Errorf("%w: orders complete by attaching documentation", ErrInvalidStatusTransition)
	}
	if orderStatusRank[next] <= orderStatusRank[o.Status] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, o.Status, next)
	}

	o.setStatus(next, time.Now().UTC())
	return nil
}

// AttachDocumentation stores proof of execution and completes the order.
// On failure the order is left untouched. Attaching again to a completed
// order replaces its documentation.
func (o *Order) AttachDocumentation(doc Documentation) error {
	earTag := strings.TrimSpace(doc.EarTag)
	if earTag == "" {
		return ErrEarTagRequired
	}

	photos := make([]string, 0, len(doc.Photos))
	for _, p := range doc.Photos {
		if p = strings.TrimSpace(p); p != "" {
			photos = append(photos, p)
		}
	}

	now := time.Now().UTC()
	o.Documentation = &Documentation{
		Photos:         photos,
		Video:          strings.TrimSpace(doc.Video),
		YouTubeURL:     strings.TrimSpace(doc.YouTubeURL),
		EarTag:         earTag,
		CertificateURL: strings.TrimSpace(doc.CertificateURL),
		AttachedAt:     now,
	}

	if o.Status == OrderStatusCompleted {
		o.UpdatedAt = now
		o.addDomainEvent(&OrderDocumentationUpdatedEvent{
			OrderID:    o.OrderID,
			EarTag:     earTag,
			PhotoCount: len(photos),
			UpdatedAt:  now,
		})
		return nil
	}

	o.setStatus(OrderStatusCompleted, now)
	o.addDomainEvent(&OrderCompletedEvent{
		OrderID:     o.OrderID,
		EarTag:      earTag,
		PhotoCount:  len(photos),
		CompletedAt: now,
	})
	return nil
}

// NeedsDocumentation reports whether no documentation has been attached yet
func (o *Order) NeedsDocumentation() bool {
	return o.Documentation == nil
}

func (o *Order) setStatus(next OrderStatus, now time.Time) {
	previous := o.Status
	o.Status = next
	o.UpdatedAt = now
	o.addDomainEvent(&OrderStatusChangedEvent{
		OrderID:   o.OrderID,
		From:      previous,
		To:        next,
		ChangedAt: now,
	})
}

func (o *Order) addDomainEvent(event DomainEvent) {
	o.domainEvents = append(o.domainEvents, event)
}

// DomainEvents returns all domain events
func (o *Order) DomainEvents() []DomainEvent {
	return o.domainEvents
}

// ClearDomainEvents clears all domain events
func (o *Order) ClearDomainEvents() {
	o.domainEvents = make([]DomainEvent, 0)
}
