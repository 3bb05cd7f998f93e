package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Beneficiary list bounds
const (
	MinBeneficiaries = 1
	MaxBeneficiaries = 7
)

// Selection is the live state of one catalog session:
// service type -> product -> weight variant -> location -> beneficiaries.
// It is not safe for concurrent use; the owning session serializes access.
type Selection struct {
	catalog       *Catalog
	serviceType   ServiceType
	product       *Product
	variantIndex  int
	locationID    string
	beneficiaries []string
}

// NewSelection creates a selection in its initial state: the first service
// type, its first product, variant 0, the first location and one empty
// beneficiary slot.
func NewSelection(catalog *Catalog) (*Selection, error) {
	if catalog == nil || len(catalog.Locations) == 0 {
		return nil, fmt.Errorf("%w: catalog has no locations", ErrInvalidSelection)
	}

	s := &Selection{
		catalog:       catalog,
		locationID:    catalog.Locations[0].LocationID,
		beneficiaries: []string{""},
	}
	if err := s.SetServiceType(ServiceTypes()[0]); err != nil {
		return nil, err
	}
	return s, nil
}

// Clone returns an independent copy of the selection. Catalog and products
// are shared; they are never modified through a selection.
func (s *Selection) Clone() *Selection {
	c := *s
	c.beneficiaries = append([]string(nil), s.beneficiaries...)
	return &c
}

// ServiceType returns the selected service type
func (s *Selection) ServiceType() ServiceType {
	return s.serviceType
}

// Product returns the selected product, or nil when the service has none
func (s *Selection) Product() *Product {
	return s.product
}

// VariantIndex returns the selected weight variant index
func (s *Selection) VariantIndex() int {
	return s.variantIndex
}

// LocationID returns the selected location id
func (s *Selection) LocationID() string {
	return s.locationID
}

// Location returns the selected location
func (s *Selection) Location() (Location, bool) {
	return s.catalog.Location(s.locationID)
}

// Beneficiaries returns a copy of the beneficiary slots
func (s *Selection) Beneficiaries() []string {
	return append([]string(nil), s.beneficiaries...)
}

// AvailableProducts returns the products of the selected service type
func (s *Selection) AvailableProducts() []*Product {
	return s.catalog.ProductsFor(s.serviceType)
}

// SetServiceType switches service type, selecting its first product and
// resetting the variant. Location and beneficiaries are kept.
func (s *Selection) SetServiceType(service ServiceType) error {
	if !service.IsValid() {
		return fmt.Errorf("%w: unknown service type %q", ErrInvalidSelection, service)
	}

	s.serviceType = service
	s.product = nil
	if products := s.catalog.ProductsFor(service); len(products) > 0 {
		s.product = products[0]
	}
	s.variantIndex = 0
	return nil
}

// SetProduct selects a product of the current service type
func (s *Selection) SetProduct(productID string) error {
	product, ok := s.catalog.Product(productID)
	if !ok {
		return fmt.Errorf("%w: unknown product %q", ErrInvalidSelection, productID)
	}
	if product.ServiceType != s.serviceType {
		return fmt.Errorf("%w: product %q is not offered for %s", ErrInvalidSelection, productID, s.serviceType)
	}

	s.product = product
	s.variantIndex = 0
	return nil
}

// SetVariantIndex selects a weight variant of the current product
func (s *Selection) SetVariantIndex(i int) error {
	if s.product == nil {
		return fmt.Errorf("%w: no product selected", ErrInvalidSelection)
	}
	if _, err := s.product.Variant(i); err != nil {
		return err
	}
	s.variantIndex = i
	return nil
}

// SetLocation selects a known location
func (s *Selection) SetLocation(locationID string) error {
	if _, ok := s.catalog.Location(locationID); !ok {
		return fmt.Errorf("%w: unknown location %q", ErrInvalidSelection, locationID)
	}
	s.locationID = locationID
	return nil
}

// AddBeneficiary appends an empty beneficiary slot
func (s *Selection) AddBeneficiary() error {
	if len(s.beneficiaries) >= MaxBeneficiaries {
		return ErrLimitReached
	}
	s.beneficiaries = append(s.beneficiaries, "")
	return nil
}

// SetBeneficiaryName sets the name in slot i
func (s *Selection) SetBeneficiaryName(i int, name string) error {
	if i < 0 || i >= len(s.beneficiaries) {
		return fmt.Errorf("%w: beneficiary index %d out of range", ErrInvalidSelection, i)
	}
	s.beneficiaries[i] = name
	return nil
}

// RemoveBeneficiary removes slot i. The last remaining slot cannot be removed.
func (s *Selection) RemoveBeneficiary(i int) error {
	if i < 0 || i >= len(s.beneficiaries) {
		return fmt.Errorf("%w: beneficiary index %d out of range", ErrInvalidSelection, i)
	}
	if len(s.beneficiaries) <= MinBeneficiaries {
		return ErrMinimumRequired
	}
	s.beneficiaries = append(s.beneficiaries[:i], s.beneficiaries[i+1:]...)
	return nil
}

// Rebind points the selection at a newer catalog snapshot. Selections that
// no longer reference valid entries are reset to the nearest valid default.
// It reports whether anything was reset.
func (s *Selection) Rebind(catalog *Catalog) (bool, error) {
	if catalog == nil || len(catalog.Locations) == 0 {
		return false, fmt.Errorf("%w: catalog has no locations", ErrInvalidSelection)
	}
	s.catalog = catalog
	reset := false

	if s.product != nil {
		current, ok := catalog.Product(s.product.ProductID)
		if !ok || current.ServiceType != s.serviceType {
			_ = s.SetServiceType(s.serviceType)
			reset = true
		} else {
			s.product = current
			if s.variantIndex >= len(current.Variants) {
				s.variantIndex = 0
				reset = true
			}
		}
	} else if products := catalog.ProductsFor(s.serviceType); len(products) > 0 {
		s.product = products[0]
		s.variantIndex = 0
		reset = true
	}

	if _, ok := catalog.Location(s.locationID); !ok {
		s.locationID = catalog.Locations[0].LocationID
		reset = true
	}

	return reset, nil
}

// BasePrice resolves the base price of the current selection
func (s *Selection) BasePrice() (decimal.Decimal, error) {
	location, ok := s.Location()
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unknown location %q", ErrInvalidSelection, s.locationID)
	}
	return ResolveBasePrice(s.product, s.variantIndex, location)
}

// Quote resolves the base price of the current selection and applies rules to it
func (s *Selection) Quote(rules []FeeRule) (FeeBreakdown, error) {
	base, err := s.BasePrice()
	if err != nil {
		return FeeBreakdown{}, err
	}
	return ApplyFees(base, rules)
}
