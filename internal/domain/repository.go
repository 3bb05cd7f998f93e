package domain

import (
	"context"
	"time"
)

// ProductRepository defines the interface for catalog product persistence
type ProductRepository interface {
	// Save creates or replaces a product
	Save(ctx context.Context, product *Product) error

	// FindByID retrieves a product by ID, nil when absent
	FindByID(ctx context.Context, productID string) (*Product, error)

	// FindAll returns products in catalog order
	FindAll(ctx context.Context, filter ProductFilter) ([]*Product, error)

	// Delete removes a product
	Delete(ctx context.Context, productID string) error

	// Count returns total count matching filter
	Count(ctx context.Context, filter ProductFilter) (int64, error)
}

// FeeRuleRepository defines the interface for fee rule persistence
type FeeRuleRepository interface {
	// Save creates or replaces a fee rule
	Save(ctx context.Context, rule FeeRule) error

	// FindByID retrieves a fee rule by ID, nil when absent
	FindByID(ctx context.Context, feeID string) (*FeeRule, error)

	// FindAll returns the rules in application order
	FindAll(ctx context.Context) ([]FeeRule, error)

	// Delete removes a fee rule
	Delete(ctx context.Context, feeID string) error
}

// OrderRepository defines the interface for order persistence.
// Concurrent writers are last-write-wins.
type OrderRepository interface {
	// Save persists an order together with its pending domain events
	Save(ctx context.Context, order *Order) error

	// FindByID retrieves an order by ID, nil when absent
	FindByID(ctx context.Context, orderID string) (*Order, error)

	// FindAll returns orders newest first
	FindAll(ctx context.Context, filter OrderFilter, pagination Pagination) ([]*Order, error)

	// Count returns total count matching filter
	Count(ctx context.Context, filter OrderFilter) (int64, error)
}

// UserRepository defines the interface for account persistence
type UserRepository interface {
	// Save creates or replaces a user
	Save(ctx context.Context, user *User) error

	// FindByID retrieves a user by ID, nil when absent
	FindByID(ctx context.Context, userID string) (*User, error)

	// FindByEmail retrieves a user by normalized email, nil when absent
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindAll returns users oldest first
	FindAll(ctx context.Context, filter UserFilter) ([]*User, error)

	// Count returns total count matching filter
	Count(ctx context.Context, filter UserFilter) (int64, error)
}

// ArticleRepository defines the interface for blog article persistence
type ArticleRepository interface {
	// Save creates or replaces an article
	Save(ctx context.Context, article *Article) error

	// FindByID retrieves an article by ID, nil when absent
	FindByID(ctx context.Context, articleID string) (*Article, error)

	// FindAll returns articles newest first
	FindAll(ctx context.Context, filter ArticleFilter) ([]*Article, error)

	// Delete removes an article
	Delete(ctx context.Context, articleID string) error
}

// Pagination represents pagination options. A zero PageSize means no limit.
type Pagination struct {
	Page     int64
	PageSize int64
}

// DefaultPagination returns default pagination options
func DefaultPagination() Pagination {
	return Pagination{
		Page:     1,
		PageSize: 20,
	}
}

// Unpaginated returns options that select every document
func Unpaginated() Pagination {
	return Pagination{Page: 1}
}

// Skip returns the number of documents to skip
func (p Pagination) Skip() int64 {
	if p.Page <= 1 || p.PageSize <= 0 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Limit returns the maximum number of documents to return
func (p Pagination) Limit() int64 {
	return p.PageSize
}

// ProductFilter represents filter options for querying products
type ProductFilter struct {
	ServiceType *ServiceType
	AnimalType  *AnimalType
}

// Matches reports whether p satisfies the filter
func (f ProductFilter) Matches(p *Product) bool {
	if f.ServiceType != nil && p.ServiceType != *f.ServiceType {
		return false
	}
	if f.AnimalType != nil && p.AnimalType != *f.AnimalType {
		return false
	}
	return true
}

// OrderFilter represents filter options for querying orders
type OrderFilter struct {
	Status        *OrderStatus
	CustomerEmail *string
	ServiceType   *ServiceType
	Documented    *bool
	FromDate      *time.Time
	ToDate        *time.Time
}

// Matches reports whether o satisfies the filter
func (f OrderFilter) Matches(o *Order) bool {
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	if f.CustomerEmail != nil && o.CustomerEmail != NormalizeEmail(*f.CustomerEmail) {
		return false
	}
	if f.ServiceType != nil && o.ServiceType != *f.ServiceType {
		return false
	}
	if f.Documented != nil && o.NeedsDocumentation() == *f.Documented {
		return false
	}
	if f.FromDate != nil && o.CreatedAt.Before(*f.FromDate) {
		return false
	}
	if f.ToDate != nil && !o.CreatedAt.Before(*f.ToDate) {
		return false
	}
	return true
}

// UserFilter represents filter options for querying users
type UserFilter struct {
	Role     *UserRole
	IsActive *bool
}

// Matches reports whether u satisfies the filter
func (f UserFilter) Matches(u *User) bool {
	if f.Role != nil && u.Role != *f.Role {
		return false
	}
	if f.IsActive != nil && u.IsActive != *f.IsActive {
		return false
	}
	return true
}

// ArticleFilter represents filter options for querying articles
type ArticleFilter struct {
	Status *ArticleStatus
}

// Matches reports whether a satisfies the filter
func (f ArticleFilter) Matches(a *Article) bool {
	return f.Status == nil || a.Status == *f.Status
}
