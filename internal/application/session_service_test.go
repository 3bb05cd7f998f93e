package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/pkg/metrics"
)

type sessionFixture struct {
	service     *SessionService
	store       *mapSessionStore
	productRepo *fakeProductRepo
	orderRepo   *fakeOrderRepo
	saved       []*domain.Order
	metrics     *metrics.Metrics
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		store:   newMapSessionStore(),
		metrics: metrics.New(metrics.DefaultConfig("test")),
	}
	productRepo, feeRepo := catalogRepos()
	f.productRepo = productRepo
	f.orderRepo = &fakeOrderRepo{
		saveFn: func(_ context.Context, o *domain.Order) error {
			f.saved = append(f.saved, o)
			return nil
		},
	}
	catalog := NewCatalogService(productRepo, feeRepo, testLocations(), NewIDGenerator(), testLogger(), f.metrics)
	f.service = NewSessionService(catalog, f.store, f.orderRepo, domain.NewOrderIDGenerator(), testLogger(), f.metrics)
	return f
}

func customer() *domain.Customer {
	return &domain.Customer{Name: "Ahmad", Email: "ahmad@example.com"}
}

func TestCreateSessionInitialState(t *testing.T) {
	f := newSessionFixture(t)

	dto, err := f.service.Create(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, dto.SessionID)
	assert.Equal(t, "kurban", dto.ServiceType)
	require.NotNil(t, dto.Product)
	assert.Equal(t, "kurban_goat", dto.Product.ProductID)
	assert.Len(t, dto.AvailableProducts, 2)
	assert.Zero(t, dto.VariantIndex)
	require.NotNil(t, dto.Location)
	assert.Equal(t, "muaisim", dto.Location.LocationID)
	assert.Equal(t, []string{""}, dto.Beneficiaries)
	assert.True(t, dto.CanAddBeneficiary)

	// 200 + 0 + 50 = 250, fees 6.25 + 10
	require.NotNil(t, dto.Quote)
	assert.Equal(t, "266.25", dto.Quote.GrandTotal)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CatalogSessionsActive))
}

func TestSessionNotFound(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.service.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionSelectionFlow(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	id := created.SessionID

	dto, err := f.service.SetProduct(ctx, id, SetProductCommand{ProductID: "kurban_cow"})
	require.NoError(t, err)
	assert.Equal(t, "kurban_cow", dto.Product.ProductID)

	dto, err = f.service.SetLocation(ctx, id, SetLocationCommand{LocationID: "makkah_city"})
	require.NoError(t, err)
	assert.Equal(t, "1200", dto.Quote.BaseAmount)

	dto, err = f.service.SetServiceType(ctx, id, SetServiceTypeCommand{ServiceType: "aqiqah"})
	require.NoError(t, err)
	assert.Equal(t, "aqiqah_goat", dto.Product.ProductID)
	assert.Equal(t, "makkah_city", dto.Location.LocationID)

	dto, err = f.service.SetServiceType(ctx, id, SetServiceTypeCommand{ServiceType: "dam"})
	require.NoError(t, err)
	assert.Nil(t, dto.Product)
	assert.Nil(t, dto.Quote)
	assert.Empty(t, dto.AvailableProducts)
}

func TestSetProductOfOtherService(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)

	_, err = f.service.SetProduct(ctx, created.SessionID, SetProductCommand{ProductID: "aqiqah_goat"})
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SelectionErrors.WithLabelValues("invalid_selection")))

	dto, err := f.service.Get(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "kurban_goat", dto.Product.ProductID)
}

func TestSetVariant(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)

	one := 1
	dto, err := f.service.SetVariant(ctx, created.SessionID, SetVariantCommand{VariantIndex: &one})
	require.NoError(t, err)
	assert.Equal(t, 1, dto.VariantIndex)
	assert.Equal(t, "300", dto.Quote.BaseAmount)

	nine := 9
	_, err = f.service.SetVariant(ctx, created.SessionID, SetVariantCommand{VariantIndex: &nine})
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
}

func TestBeneficiaryBounds(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	id := created.SessionID

	_, err = f.service.RemoveBeneficiary(ctx, id, 0)
	assert.ErrorIs(t, err, domain.ErrMinimumRequired)

	var dto *SessionDTO
	for i := 1; i < domain.MaxBeneficiaries; i++ {
		dto, err = f.service.AddBeneficiary(ctx, id)
		require.NoError(t, err)
	}
	assert.Len(t, dto.Beneficiaries, domain.MaxBeneficiaries)
	assert.False(t, dto.CanAddBeneficiary)

	_, err = f.service.AddBeneficiary(ctx, id)
	assert.ErrorIs(t, err, domain.ErrLimitReached)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SelectionErrors.WithLabelValues("limit_reached")))

	dto, err = f.service.SetBeneficiary(ctx, id, 2, SetBeneficiaryCommand{Name: "Fatimah"})
	require.NoError(t, err)
	assert.Equal(t, "Fatimah", dto.Beneficiaries[2])

	dto, err = f.service.RemoveBeneficiary(ctx, id, 0)
	require.NoError(t, err)
	assert.Len(t, dto.Beneficiaries, domain.MaxBeneficiaries-1)
	assert.Equal(t, "Fatimah", dto.Beneficiaries[1])

	_, err = f.service.SetBeneficiary(ctx, id, 42, SetBeneficiaryCommand{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
}

func TestSessionRebindsAfterProductDeleted(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	_, err = f.service.SetProduct(ctx, created.SessionID, SetProductCommand{ProductID: "kurban_cow"})
	require.NoError(t, err)

	remaining := testProducts()[:1]
	f.productRepo.findAllFn = func(context.Context, domain.ProductFilter) ([]*domain.Product, error) {
		return remaining, nil
	}

	dto, err := f.service.Get(ctx, created.SessionID)
	require.NoError(t, err)
	assert.True(t, dto.Reset)
	assert.Equal(t, "kurban_goat", dto.Product.ProductID)
}

func TestCheckoutRejectsSelectionChangedByCatalog(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	id := created.SessionID
	_, err = f.service.SetProduct(ctx, id, SetProductCommand{ProductID: "kurban_cow"})
	require.NoError(t, err)
	shown, err := f.service.SetBeneficiary(ctx, id, 0, SetBeneficiaryCommand{Name: "Ahmad"})
	require.NoError(t, err)
	require.NotNil(t, shown.Quote)
	assert.Equal(t, "1291.25", shown.Quote.GrandTotal)

	remaining := testProducts()[:1]
	f.productRepo.findAllFn = func(context.Context, domain.ProductFilter) ([]*domain.Product, error) {
		return remaining, nil
	}

	_, err = f.service.Checkout(ctx, id, customer())
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
	assert.Empty(t, f.saved)
	assert.Equal(t, 1, f.store.Len())

	dto, err := f.service.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, dto.Reset)
	assert.Equal(t, "kurban_goat", dto.Product.ProductID)
	assert.Equal(t, []string{"Ahmad"}, dto.Beneficiaries)

	// once reviewed, the new selection checks out at its own price
	order, err := f.service.Checkout(ctx, id, customer())
	require.NoError(t, err)
	assert.Equal(t, "kurban_goat", order.ProductID)
	assert.Equal(t, "266.25", order.TotalPrice)
}

func TestFailedCheckoutKeepsCatalogReset(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	id := created.SessionID
	_, err = f.service.SetProduct(ctx, id, SetProductCommand{ProductID: "kurban_cow"})
	require.NoError(t, err)

	remaining := testProducts()[:1]
	f.productRepo.findAllFn = func(context.Context, domain.ProductFilter) ([]*domain.Product, error) {
		return remaining, nil
	}

	// the blank beneficiary fails too, but the catalog change is reported first
	_, err = f.service.Checkout(ctx, id, customer())
	require.Error(t, err)
	assert.Empty(t, f.saved)

	_, err = f.service.SetVariant(ctx, id, SetVariantCommand{VariantIndex: intPtr(9)})
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)

	dto, err := f.service.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, dto.Reset)
	assert.Equal(t, "kurban_goat", dto.Product.ProductID)

	dto, err = f.service.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, dto.Reset)
}

func TestCheckout(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	id := created.SessionID

	_, err = f.service.SetBeneficiary(ctx, id, 0, SetBeneficiaryCommand{Name: "  Ahmad bin Umar "})
	require.NoError(t, err)
	_, err = f.service.AddBeneficiary(ctx, id)
	require.NoError(t, err)

	order, err := f.service.Checkout(ctx, id, customer())
	require.NoError(t, err)

	assert.Regexp(t, `^PYR-\d{5}$`, order.OrderID)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "ahmad@example.com", order.CustomerEmail)
	assert.Equal(t, []string{"Ahmad bin Umar"}, order.Beneficiaries)
	assert.Equal(t, "250", order.BasePrice)
	assert.Equal(t, "266.25", order.TotalPrice)
	assert.Equal(t, "266.25", order.TotalDisplay)
	assert.Len(t, order.AppliedFees, 2)

	require.Len(t, f.saved, 1)
	require.Len(t, f.saved[0].DomainEvents(), 1)
	assert.IsType(t, &domain.OrderPlacedEvent{}, f.saved[0].DomainEvents()[0])

	assert.Zero(t, f.store.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrdersPlaced.WithLabelValues("kurban")))

	_, err = f.service.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCheckoutWithoutBeneficiaryName(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)

	_, err = f.service.Checkout(ctx, created.SessionID, customer())
	assert.ErrorIs(t, err, domain.ErrIncompleteOrder)
	assert.Empty(t, f.saved)

	// the session survives a failed checkout
	_, err = f.service.Get(ctx, created.SessionID)
	assert.NoError(t, err)
}

func TestCheckoutWithoutCustomer(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	_, err = f.service.SetBeneficiary(ctx, created.SessionID, 0, SetBeneficiaryCommand{Name: "Ahmad"})
	require.NoError(t, err)

	_, err = f.service.Checkout(ctx, created.SessionID, nil)
	assert.ErrorIs(t, err, domain.ErrIncompleteOrder)
}

func TestCheckoutSaveFailureKeepsSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.orderRepo.saveFn = func(context.Context, *domain.Order) error {
		return errors.New("db error")
	}

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	_, err = f.service.SetBeneficiary(ctx, created.SessionID, 0, SetBeneficiaryCommand{Name: "Ahmad"})
	require.NoError(t, err)

	_, err = f.service.Checkout(ctx, created.SessionID, customer())
	require.Error(t, err)
	assert.Equal(t, 1, f.store.Len())
}

func TestConcurrentCheckoutPlacesOneOrder(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	var mu sync.Mutex
	f.orderRepo.saveFn = func(_ context.Context, o *domain.Order) error {
		mu.Lock()
		defer mu.Unlock()
		f.saved = append(f.saved, o)
		return nil
	}

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	_, err = f.service.SetBeneficiary(ctx, created.SessionID, 0, SetBeneficiaryCommand{Name: "Ahmad"})
	require.NoError(t, err)
	session, err := f.store.Get(ctx, created.SessionID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// keep the session reachable for every caller
			_ = f.store.Put(ctx, session)
			_, errs[i] = f.service.Checkout(ctx, created.SessionID, customer())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.saved, 1)
}

func TestAbandonSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, f.service.Abandon(ctx, created.SessionID))
	assert.ErrorIs(t, f.service.Abandon(ctx, created.SessionID), domain.ErrSessionNotFound)
}
