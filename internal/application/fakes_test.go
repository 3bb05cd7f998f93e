package application

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/pkg/logging"
)

type fakeProductRepo struct {
	saveFn     func(context.Context, *domain.Product) error
	findByIDFn func(context.Context, string) (*domain.Product, error)
	findAllFn  func(context.Context, domain.ProductFilter) ([]*domain.Product, error)
	deleteFn   func(context.Context, string) error
	countFn    func(context.Context, domain.ProductFilter) (int64, error)
}

func (f *fakeProductRepo) Save(ctx context.Context, product *domain.Product) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, product)
	}
	return nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, productID string) (*domain.Product, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, productID)
	}
	return nil, nil
}

func (f *fakeProductRepo) FindAll(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakeProductRepo) Delete(ctx context.Context, productID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, productID)
	}
	return nil
}

func (f *fakeProductRepo) Count(ctx context.Context, filter domain.ProductFilter) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx, filter)
	}
	return 0, nil
}

type fakeFeeRepo struct {
	saveFn     func(context.Context, domain.FeeRule) error
	findByIDFn func(context.Context, string) (*domain.FeeRule, error)
	findAllFn  func(context.Context) ([]domain.FeeRule, error)
	deleteFn   func(context.Context, string) error
}

func (f *fakeFeeRepo) Save(ctx context.Context, rule domain.FeeRule) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, rule)
	}
	return nil
}

func (f *fakeFeeRepo) FindByID(ctx context.Context, feeID string) (*domain.FeeRule, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, feeID)
	}
	return nil, nil
}

func (f *fakeFeeRepo) FindAll(ctx context.Context) ([]domain.FeeRule, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeFeeRepo) Delete(ctx context.Context, feeID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, feeID)
	}
	return nil
}

type fakeOrderRepo struct {
	saveFn     func(context.Context, *domain.Order) error
	findByIDFn func(context.Context, string) (*domain.Order, error)
	findAllFn  func(context.Context, domain.OrderFilter, domain.Pagination) ([]*domain.Order, error)
	countFn    func(context.Context, domain.OrderFilter) (int64, error)
}

func (f *fakeOrderRepo) Save(ctx context.Context, order *domain.Order) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, order)
	}
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, orderID)
	}
	return nil, nil
}

func (f *fakeOrderRepo) FindAll(ctx context.Context, filter domain.OrderFilter, pagination domain.Pagination) ([]*domain.Order, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx, filter, pagination)
	}
	return nil, nil
}

func (f *fakeOrderRepo) Count(ctx context.Context, filter domain.OrderFilter) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx, filter)
	}
	return 0, nil
}

type fakeUserRepo struct {
	saveFn        func(context.Context, *domain.User) error
	findByIDFn    func(context.Context, string) (*domain.User, error)
	findByEmailFn func(context.Context, string) (*domain.User, error)
	findAllFn     func(context.Context, domain.UserFilter) ([]*domain.User, error)
	countFn       func(context.Context, domain.UserFilter) (int64, error)
}

func (f *fakeUserRepo) Save(ctx context.Context, user *domain.User) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, user)
	}
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.findByEmailFn != nil {
		return f.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (f *fakeUserRepo) FindAll(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakeUserRepo) Count(ctx context.Context, filter domain.UserFilter) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx, filter)
	}
	return 0, nil
}

type fakeArticleRepo struct {
	saveFn     func(context.Context, *domain.Article) error
	findByIDFn func(context.Context, string) (*domain.Article, error)
	findAllFn  func(context.Context, domain.ArticleFilter) ([]*domain.Article, error)
	deleteFn   func(context.Context, string) error
}

func (f *fakeArticleRepo) Save(ctx context.Context, article *domain.Article) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, article)
	}
	return nil
}

func (f *fakeArticleRepo) FindByID(ctx context.Context, articleID string) (*domain.Article, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, articleID)
	}
	return nil, nil
}

func (f *fakeArticleRepo) FindAll(ctx context.Context, filter domain.ArticleFilter) ([]*domain.Article, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakeArticleRepo) Delete(ctx context.Context, articleID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, articleID)
	}
	return nil
}

// mapSessionStore is a SessionStore without expiry
type mapSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.CatalogSession
}

func newMapSessionStore() *mapSessionStore {
	return &mapSessionStore{sessions: make(map[string]*domain.CatalogSession)}
}

func (s *mapSessionStore) Put(_ context.Context, session *domain.CatalogSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = session
	return nil
}

func (s *mapSessionStore) Get(_ context.Context, sessionID string) (*domain.CatalogSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[sessionID], nil
}

func (s *mapSessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *mapSessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func testLogger() *logging.Logger {
	return logging.NewNop()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testProducts() []*domain.Product {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return []*domain.Product{
		{
			ProductID:   "kurban_goat",
			Name:        "Kambing Kurban",
			AnimalType:  domain.AnimalTypeGoat,
			ServiceType: domain.ServiceTypeKurban,
			BasePrice:   dec("200"),
			Variants: []domain.WeightVariant{
				{Weight: dec("25"), Price: dec("0")},
				{Weight: dec("35"), Price: dec("50")},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ProductID:   "kurban_cow",
			Name:        "Sapi Kurban",
			AnimalType:  domain.AnimalTypeCow,
			ServiceType: domain.ServiceTypeKurban,
			BasePrice:   dec("1200"),
			Variants:    []domain.WeightVariant{{Weight: dec("250"), Price: dec("0")}},
			Position:    1,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ProductID:   "aqiqah_goat",
			Name:        "Kambing Aqiqah",
			AnimalType:  domain.AnimalTypeGoat,
			ServiceType: domain.ServiceTypeAqiqah,
			BasePrice:   dec("220"),
			Variants:    []domain.WeightVariant{{Weight: dec("25"), Price: dec("0")}},
			Position:    2,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

func testLocations() []domain.Location {
	return []domain.Location{
		{LocationID: "muaisim", Name: "Al-Muaisim", AdditionalPrice: dec("50")},
		{LocationID: "makkah_city", Name: "Kota Mekkah", AdditionalPrice: dec("0")},
	}
}

func testFees() []domain.FeeRule {
	return []domain.FeeRule{
		{FeeID: "F-1", Label: "Processing & Logistics", Kind: domain.FeeKindPercentage, Value: dec("2.5"), Position: 0},
		{FeeID: "F-2", Label: "Service Fee", Kind: domain.FeeKindFixed, Value: dec("10"), Position: 1},
	}
}

// catalogRepos returns product and fee repositories serving the fixtures
func catalogRepos() (*fakeProductRepo, *fakeFeeRepo) {
	products := testProducts()
	productRepo := &fakeProductRepo{
		findAllFn: func(_ context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
			var out []*domain.Product
			for _, p := range products {
				if filter.Matches(p) {
					out = append(out, p)
				}
			}
			return out, nil
		},
		findByIDFn: func(_ context.Context, id string) (*domain.Product, error) {
			for _, p := range products {
				if p.ProductID == id {
					return p, nil
				}
			}
			return nil, nil
		},
		countFn: func(context.Context, domain.ProductFilter) (int64, error) {
			return int64(len(products)), nil
		},
	}
	feeRepo := &fakeFeeRepo{
		findAllFn: func(context.Context) ([]domain.FeeRule, error) {
			return testFees(), nil
		},
	}
	return productRepo, feeRepo
}

func newTestCatalogService(productRepo domain.ProductRepository, feeRepo domain.FeeRuleRepository) *CatalogService {
	return NewCatalogService(productRepo, feeRepo, testLocations(), NewIDGenerator(), testLogger(), nil)
}

func intPtr(i int) *int {
	return &i
}
