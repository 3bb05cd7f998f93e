package domain

import (
	"errors"
	"fmt"
)

// Errors for the marketplace domain
var (
	ErrInvalidSelection = errors.New("invalid selection")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrIncompleteOrder  = errors.New("incomplete order")
	ErrLimitReached     = errors.New("beneficiary limit reached")
	ErrMinimumRequired  = errors.New("at least one beneficiary is required")

	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrEarTagRequired          = fmt.Errorf("%w: ear tag is required", ErrIncompleteOrder)
	ErrOrderNotFound           = errors.New("order not found")
	ErrProductNotFound         = errors.New("product not found")
	ErrFeeRuleNotFound         = errors.New("fee rule not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrUserInactive            = errors.New("user account is inactive")
	ErrDuplicateEmail          = errors.New("email already exists")
	ErrArticleNotFound         = errors.New("article not found")
	ErrSessionNotFound         = errors.New("catalog session not found")
	ErrInvalidProduct          = errors.New("invalid product")
	ErrInvalidFeeRule          = errors.New("invalid fee rule")
	ErrInvalidUser             = errors.New("invalid user")
	ErrInvalidArticle          = errors.New("invalid article")
	ErrOrderIDsExhausted       = errors.New("order id space exhausted")
)
