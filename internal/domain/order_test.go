package domain

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioRules = []FeeRule{
	{Label: "Service Fee", Kind: FeeKindFixed, Value: dec("10")},
	{Label: "Processing & Logistics", Kind: FeeKindPercentage, Value: dec("2.5")},
}

func placeTestOrder(t *testing.T) *Order {
	t.Helper()
	s := newTestSelection(t)
	require.NoError(t, s.SetVariantIndex(1))
	require.NoError(t, s.SetBeneficiaryName(0, "Ahmad"))

	totals, err := s.Quote(scenarioRules)
	require.NoError(t, err)

	order, err := Materialize(s, &Customer{Name: "Ahmad", Email: "ahmad@example.com"}, totals, NewOrderIDGenerator())
	require.NoError(t, err)
	return order
}

func TestMaterializeScenario(t *testing.T) {
	order := placeTestOrder(t)

	assert.Regexp(t, regexp.MustCompile(`^PYR-\d{5}$`), order.OrderID)
	assert.True(t, order.TotalPrice.Equal(dec("317.5")))
	assert.True(t, order.BasePrice.Equal(dec("300")))
	assert.Equal(t, OrderStatusPending, order.Status)
	require.Len(t, order.AppliedFees, 2)
	assert.Equal(t, "Service Fee", order.AppliedFees[0].Label)
	assert.True(t, order.AppliedFees[0].Amount.Equal(dec("10")))
	assert.Equal(t, "Processing & Logistics", order.AppliedFees[1].Label)
	assert.True(t, order.AppliedFees[1].Amount.Equal(dec("7.5")))
	assert.Equal(t, []string{"Ahmad"}, order.Beneficiaries)
	assert.Equal(t, ServiceTypeKurban, order.ServiceType)
	assert.Equal(t, AnimalTypeGoat, order.AnimalType)
	assert.True(t, order.Weight.Equal(dec("35")))
	assert.Equal(t, "Rumah Potong Hewan Al-Muaisim", order.Location)
	assert.False(t, order.CreatedAt.IsZero())
	assert.Nil(t, order.Documentation)

	events := order.DomainEvents()
	require.Len(t, events, 1)
	placed, ok := events[0].(*OrderPlacedEvent)
	require.True(t, ok)
	assert.Equal(t, order.OrderID, placed.OrderID)
	assert.True(t, placed.TotalPrice.Equal(dec("317.5")))

	order.ClearDomainEvents()
	assert.Empty(t, order.DomainEvents())
}

func TestMaterializeSnapshotsTotals(t *testing.T) {
	s := newTestSelection(t)
	require.NoError(t, s.SetBeneficiaryName(0, "Ahmad"))

	totals, err := s.Quote(scenarioRules)
	require.NoError(t, err)

	order, err := Materialize(s, &Customer{Name: "Ahmad", Email: "ahmad@example.com"}, totals, NewOrderIDGenerator())
	require.NoError(t, err)

	// later changes to the breakdown or the selection do not reach the order
	totals.AppliedFees[0].Amount = dec("999")
	require.NoError(t, s.SetBeneficiaryName(0, "Someone else"))
	assert.True(t, order.AppliedFees[0].Amount.Equal(dec("10")))
	assert.Equal(t, []string{"Ahmad"}, order.Beneficiaries)
}

func TestMaterializeTrimsBeneficiaries(t *testing.T) {
	s := newTestSelection(t)
	require.NoError(t, s.AddBeneficiary())
	require.NoError(t, s.AddBeneficiary())
	require.NoError(t, s.SetBeneficiaryName(0, "  "))
	require.NoError(t, s.SetBeneficiaryName(1, " Siti "))

	totals, err := s.Quote(nil)
	require.NoError(t, err)

	order, err := Materialize(s, &Customer{Name: "Siti", Email: "siti@example.com"}, totals, NewOrderIDGenerator())
	require.NoError(t, err)
	assert.Equal(t, []string{"Siti"}, order.Beneficiaries)
	assert.NotNil(t, order.AppliedFees)
	assert.Empty(t, order.AppliedFees)
}

func TestMaterializeIncompleteOrder(t *testing.T) {
	customer := &Customer{Name: "Ahmad", Email: "ahmad@example.com"}

	blank := newTestSelection(t)
	require.NoError(t, blank.AddBeneficiary())
	require.NoError(t, blank.SetBeneficiaryName(1, "   "))
	totals, err := blank.Quote(nil)
	require.NoError(t, err)

	_, err = Materialize(blank, customer, totals, NewOrderIDGenerator())
	assert.ErrorIs(t, err, ErrIncompleteOrder)

	named := newTestSelection(t)
	require.NoError(t, named.SetBeneficiaryName(0, "Ahmad"))

	_, err = Materialize(named, nil, totals, NewOrderIDGenerator())
	assert.ErrorIs(t, err, ErrIncompleteOrder)

	_, err = Materialize(named, &Customer{Name: "Anon"}, totals, NewOrderIDGenerator())
	assert.ErrorIs(t, err, ErrIncompleteOrder)
}

func TestMaterializeWithoutProduct(t *testing.T) {
	s := newTestSelection(t)
	require.NoError(t, s.SetBeneficiaryName(0, "Ahmad"))
	require.NoError(t, s.SetServiceType(ServiceTypeDam))

	_, err := Materialize(s, &Customer{Name: "Ahmad", Email: "ahmad@example.com"}, FeeBreakdown{}, NewOrderIDGenerator())
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestOrderIDGeneratorUnique(t *testing.T) {
	g := NewOrderIDGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 2000; i++ {
		id, err := g.Next()
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestOrderIDGeneratorReserveAndExhaustion(t *testing.T) {
	g := NewOrderIDGenerator()
	g.intn = func(int) int { return 0 }

	g.Reserve("PYR-10000")
	_, err := g.Next()
	assert.ErrorIs(t, err, ErrOrderIDsExhausted)

	calls := 0
	g.intn = func(int) int {
		calls++
		return calls - 1
	}
	id, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("PYR-%05d", 10001), id)
}

func TestAttachDocumentationRequiresEarTag(t *testing.T) {
	order := placeTestOrder(t)
	order.ClearDomainEvents()

	err := order.AttachDocumentation(Documentation{Photos: []string{"https://img/1.jpg"}, EarTag: "  "})
	assert.ErrorIs(t, err, ErrEarTagRequired)
	assert.ErrorIs(t, err, ErrIncompleteOrder)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.Nil(t, order.Documentation)
	assert.Empty(t, order.DomainEvents())
}

func TestAttachDocumentationCompletesOrder(t *testing.T) {
	order := placeTestOrder(t)
	require.NoError(t, order.AdvanceStatus(OrderStatusPaid))
	order.ClearDomainEvents()

	err := order.AttachDocumentation(Documentation{
		Photos:     []string{" https://img/1.jpg ", "", "https://img/2.jpg"},
		YouTubeURL: "https://youtu.be/abc",
		EarTag:     " TAG-8821 ",
	})
	require.NoError(t, err)

	assert.Equal(t, OrderStatusCompleted, order.Status)
	require.NotNil(t, order.Documentation)
	assert.Equal(t, "TAG-8821", order.Documentation.EarTag)
	assert.Equal(t, []string{"https://img/1.jpg", "https://img/2.jpg"}, order.Documentation.Photos)
	assert.False(t, order.Documentation.IsIncomplete())
	assert.False(t, order.NeedsDocumentation())

	events := order.DomainEvents()
	require.Len(t, events, 2)
	changed, ok := events[0].(*OrderStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, OrderStatusPaid, changed.From)
	assert.Equal(t, OrderStatusCompleted, changed.To)
	completed, ok := events[1].(*OrderCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, 2, completed.PhotoCount)
}

func TestAttachDocumentationWithoutPhotosIsIncomplete(t *testing.T) {
	order := placeTestOrder(t)
	require.NoError(t, order.AttachDocumentation(Documentation{EarTag: "TAG-1"}))
	assert.Equal(t, OrderStatusCompleted, order.Status)
	assert.True(t, order.Documentation.IsIncomplete())
}

func TestAttachDocumentationReplacesOnCompletedOrder(t *testing.T) {
	order := placeTestOrder(t)
	require.NoError(t, order.AttachDocumentation(Documentation{EarTag: "TAG-1"}))
	order.ClearDomainEvents()

	require.NoError(t, order.AttachDocumentation(Documentation{EarTag: "TAG-2", Photos: []string{"p"}}))
	assert.Equal(t, OrderStatusCompleted, order.Status)
	assert.Equal(t, "TAG-2", order.Documentation.EarTag)

	events := order.DomainEvents()
	require.Len(t, events, 1)
	_, ok := events[0].(*OrderDocumentationUpdatedEvent)
	assert.True(t, ok)
}

func TestAdvanceStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		wantErr bool
	}{
		{"pending to paid", OrderStatusPending, OrderStatusPaid, false},
		{"pending to processing", OrderStatusPending, OrderStatusProcessing, false},
		{"paid to processing", OrderStatusPaid, OrderStatusProcessing, false},
		{"processing to paid", OrderStatusProcessing, OrderStatusPaid, true},
		{"paid to pending", OrderStatusPaid, OrderStatusPending, true},
		{"same status", OrderStatusPaid, OrderStatusPaid, true},
		{"to completed", OrderStatusProcessing, OrderStatusCompleted, true},
		{"from completed", OrderStatusCompleted, OrderStatusProcessing, true},
		{"unknown", OrderStatusPending, OrderStatus("shipped"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{OrderID: "PYR-10001", Status: tt.from}
			err := order.AdvanceStatus(tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStatusTransition)
				assert.Equal(t, tt.from, order.Status)
				assert.Empty(t, order.DomainEvents())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, order.Status)
			require.Len(t, order.DomainEvents(), 1)
		})
	}
}

func TestOrderStatusHelpers(t *testing.T) {
	assert.True(t, OrderStatusPaid.IsValid())
	assert.False(t, OrderStatus("refunded").IsValid())
	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.False(t, OrderStatusProcessing.IsTerminal())
}
