package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ResolveBasePrice computes product base price + variant surcharge + location surcharge.
// An invalid variant index is an error, never a zero surcharge.
func ResolveBasePrice(product *Product, variantIndex int, location Location) (decimal.Decimal, error) {
	if product == nil {
		return decimal.Zero, fmt.Errorf("%w: no product selected", ErrInvalidSelection)
	}

	variant, err := product.Variant(variantIndex)
	if err != nil {
		return decimal.Zero, err
	}

	if product.BasePrice.IsNegative() || variant.Price.IsNegative() || location.AdditionalPrice.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative price component for product %s", ErrInvalidAmount, product.ProductID)
	}

	return product.BasePrice.Add(variant.Price).Add(location.AdditionalPrice), nil
}
