package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ServiceType represents a sacrifice service category
type ServiceType string

const (
	ServiceTypeKurban  ServiceType = "kurban"
	ServiceTypeAqiqah  ServiceType = "aqiqah"
	ServiceTypeDam     ServiceType = "dam"
	ServiceTypeSedekah ServiceType = "sedekah"
)

// ServiceTypes returns the canonical ordering of service types.
// The first entry is the initial service of every catalog session.
func ServiceTypes() []ServiceType {
	return []ServiceType{ServiceTypeKurban, ServiceTypeAqiqah, ServiceTypeDam, ServiceTypeSedekah}
}

// IsValid checks if the service type is valid
func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceTypeKurban, ServiceTypeAqiqah, ServiceTypeDam, ServiceTypeSedekah:
		return true
	}
	return false
}

// AnimalType represents the kind of animal offered
type AnimalType string

const (
	AnimalTypeGoat    AnimalType = "goat"
	AnimalTypeCow     AnimalType = "cow"
	AnimalTypeBuffalo AnimalType = "buffalo"
	AnimalTypeCamel   AnimalType = "camel"
)

// IsValid checks if the animal type is valid
func (a AnimalType) IsValid() bool {
	switch a {
	case AnimalTypeGoat, AnimalTypeCow, AnimalTypeBuffalo, AnimalTypeCamel:
		return true
	}
	return false
}

// WeightVariant is a selectable weight class with its surcharge
type WeightVariant struct {
	Weight decimal.Decimal `bson:"weight" json:"weight"`
	Price  decimal.Decimal `bson:"price" json:"price"`
}

// Product is a catalog entry. The order of Variants defines the selectable index.
type Product struct {
	ProductID   string          `bson:"productId" json:"productId"`
	Name        string          `bson:"name,omitempty" json:"name,omitempty"`
	AnimalType  AnimalType      `bson:"animalType" json:"animalType"`
	ServiceType ServiceType     `bson:"serviceType" json:"serviceType"`
	BasePrice   decimal.Decimal `bson:"basePrice" json:"basePrice"`
	Variants    []WeightVariant `bson:"variants" json:"variants"`
	Position    int             `bson:"position" json:"position"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the product invariants
func (p *Product) Validate() error {
	if strings.TrimSpace(p.ProductID) == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidProduct)
	}
	if !p.AnimalType.IsValid() {
		return fmt.Errorf("%w: unknown animal type %q", ErrInvalidProduct, p.AnimalType)
	}
	if !p.ServiceType.IsValid() {
		return fmt.Errorf("%w: unknown service type %q", ErrInvalidProduct, p.ServiceType)
	}
	if p.BasePrice.IsNegative() {
		return fmt.Errorf("%w: base price must not be negative", ErrInvalidProduct)
	}
	if len(p.Variants) == 0 {
		return fmt.Errorf("%w: at least one weight variant is required", ErrInvalidProduct)
	}
	for i, v := range p.Variants {
		if !v.Weight.IsPositive() {
			return fmt.Errorf("%w: variant %d weight must be positive", ErrInvalidProduct, i)
		}
		if v.Price.IsNegative() {
			return fmt.Errorf("%w: variant %d price must not be negative", ErrInvalidProduct, i)
		}
	}
	return nil
}

// Variant returns the weight variant at index i
func (p *Product) Variant(i int) (WeightVariant, error) {
	if i < 0 || i >= len(p.Variants) {
		return WeightVariant{}, fmt.Errorf("%w: variant index %d out of range for product %s", ErrInvalidSelection, i, p.ProductID)
	}
	return p.Variants[i], nil
}

// Location is a slaughter location with its surcharge
type Location struct {
	LocationID      string          `bson:"locationId" json:"locationId"`
	Name            string          `bson:"name" json:"name"`
	AdditionalPrice decimal.Decimal `bson:"additionalPrice" json:"additionalPrice"`
}

// Catalog is a read-only snapshot of products and locations used by a
// catalog session. Product order is the catalog order.
type Catalog struct {
	Products  []*Product
	Locations []Location
}

// ProductsFor returns the products of a service type in catalog order
func (c *Catalog) ProductsFor(service ServiceType) []*Product {
	var out []*Product
	for _, p := range c.Products {
		if p.ServiceType == service {
			out = append(out, p)
		}
	}
	return out
}

// Product looks up a product by id
func (c *Catalog) Product(productID string) (*Product, bool) {
	for _, p := range c.Products {
		if p.ProductID == productID {
			return p, true
		}
	}
	return nil, false
}

// Location looks up a location by id
func (c *Catalog) Location(locationID string) (Location, bool) {
	for _, l := range c.Locations {
		if l.LocationID == locationID {
			return l, true
		}
	}
	return Location{}, false
}

// ProductDraft is a partial product edited by an administrator.
// Nil fields keep the value of the product being updated.
type ProductDraft struct {
	Name        *string
	AnimalType  *AnimalType
	ServiceType *ServiceType
	BasePrice   *decimal.Decimal
	Variants    []WeightVariant
}

// Build creates a new product from the draft
func (d ProductDraft) Build(productID string, now time.Time) (*Product, error) {
	p := &Product{
		ProductID:   productID,
		AnimalType:  AnimalTypeGoat,
		ServiceType: ServiceTypeKurban,
		BasePrice:   decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	d.applyTo(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyTo returns a copy of p with the draft merged in
func (d ProductDraft) ApplyTo(p *Product, now time.Time) (*Product, error) {
	updated := *p
	updated.Variants = append([]WeightVariant(nil), p.Variants...)
	d.applyTo(&updated)
	updated.UpdatedAt = now
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (d ProductDraft) applyTo(p *Product) {
	if d.Name != nil {
		p.Name = strings.TrimSpace(*d.Name)
	}
	if d.AnimalType != nil {
		p.AnimalType = *d.AnimalType
	}
	if d.ServiceType != nil {
		p.ServiceType = *d.ServiceType
	}
	if d.BasePrice != nil {
		p.BasePrice = *d.BasePrice
	}
	if d.Variants != nil {
		p.Variants = append([]WeightVariant(nil), d.Variants...)
	}
}
