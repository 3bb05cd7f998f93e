// Package memory holds process-local repositories used when no database is
// configured and in tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
)

// ProductRepository implements domain.ProductRepository
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

// NewProductRepository creates an empty ProductRepository
func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]*domain.Product)}
}

func copyProduct(p *domain.Product) *domain.Product {
	c := *p
	c.Variants = slices.Clone(p.Variants)
	return &c
}

// Save creates or replaces a product
func (r *ProductRepository) Save(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ProductID] = copyProduct(product)
	return nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(_ context.Context, productID string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.products[productID]; ok {
		return copyProduct(p), nil
	}
	return nil, nil
}

// FindAll returns products ordered by position
func (r *ProductRepository) FindAll(_ context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.Matches(p) {
			out = append(out, copyProduct(p))
		}
	}
	slices.SortFunc(out, func(a, b *domain.Product) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.ProductID, b.ProductID))
	})
	return out, nil
}

// Delete removes a product
func (r *ProductRepository) Delete(_ context.Context, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[productID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	delete(r.products, productID)
	return nil
}

// Count returns total count matching filter
func (r *ProductRepository) Count(_ context.Context, filter domain.ProductFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, p := range r.products {
		if filter.Matches(p) {
			n++
		}
	}
	return n, nil
}

// FeeRuleRepository implements domain.FeeRuleRepository
type FeeRuleRepository struct {
	mu    sync.RWMutex
	rules map[string]domain.FeeRule
}

// NewFeeRuleRepository creates an empty FeeRuleRepository
func NewFeeRuleRepository() *FeeRuleRepository {
	return &FeeRuleRepository{rules: make(map[string]domain.FeeRule)}
}

// Save creates or replaces a fee rule
func (r *FeeRuleRepository) Save(_ context.Context, rule domain.FeeRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.FeeID] = rule
	return nil
}

// FindByID retrieves a fee rule by ID
func (r *FeeRuleRepository) FindByID(_ context.Context, feeID string) (*domain.FeeRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rule, ok := r.rules[feeID]; ok {
		return &rule, nil
	}
	return nil, nil
}

// FindAll returns the rules in application order
func (r *FeeRuleRepository) FindAll(_ context.Context) ([]domain.FeeRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.FeeRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	slices.SortFunc(out, func(a, b domain.FeeRule) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.FeeID, b.FeeID))
	})
	return out, nil
}

// Delete removes a fee rule
func (r *FeeRuleRepository) Delete(_ context.Context, feeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[feeID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrFeeRuleNotFound, feeID)
	}
	delete(r.rules, feeID)
	return nil
}

var (
	_ domain.ProductRepository = (*ProductRepository)(nil)
	_ domain.FeeRuleRepository = (*FeeRuleRepository)(nil)
)
