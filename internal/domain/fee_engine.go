package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FeeKind is the way a fee rule is applied
type FeeKind string

const (
	FeeKindFixed      FeeKind = "fixed"
	FeeKindPercentage FeeKind = "percentage"
)

// IsValid checks if the fee kind is valid
func (k FeeKind) IsValid() bool {
	return k == FeeKindFixed || k == FeeKindPercentage
}

var hundred = decimal.NewFromInt(100)

// FeeRule is an admin-configured surcharge
type FeeRule struct {
	FeeID     string          `bson:"feeId" json:"feeId"`
	Label     string          `bson:"label" json:"label"`
	Kind      FeeKind         `bson:"kind" json:"kind"`
	Value     decimal.Decimal `bson:"value" json:"value"`
	Position  int             `bson:"position" json:"position"`
	UpdatedAt time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the fee rule invariants
func (r FeeRule) Validate() error {
	if strings.TrimSpace(r.Label) == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidFeeRule)
	}
	if !r.Kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidFeeRule, r.Kind)
	}
	if r.Value.IsNegative() {
		return fmt.Errorf("%w: value must not be negative", ErrInvalidFeeRule)
	}
	if r.Kind == FeeKindPercentage && r.Value.GreaterThan(hundred) {
		return fmt.Errorf("%w: percentage must be between 0 and 100", ErrInvalidFeeRule)
	}
	return nil
}

// AppliedFee is a fee as charged on a base amount
type AppliedFee struct {
	Label  string          `bson:"label" json:"label"`
	Amount decimal.Decimal `bson:"amount" json:"amount"`
}

// FeeBreakdown is the result of applying fee rules to a base amount.
// Amounts are unrounded; use Display for presentation.
type FeeBreakdown struct {
	BaseAmount  decimal.Decimal `json:"baseAmount"`
	AppliedFees []AppliedFee    `json:"appliedFees"`
	GrandTotal  decimal.Decimal `json:"grandTotal"`
}

// TotalFees returns the sum of applied fee amounts
func (b FeeBreakdown) TotalFees() decimal.Decimal {
	total := decimal.Zero
	for _, f := range b.AppliedFees {
		total = total.Add(f.Amount)
	}
	return total
}

// ApplyFees applies rules in order to baseAmount. Percentage rules are taken
// from the original base amount, so fees never compound.
func ApplyFees(baseAmount decimal.Decimal, rules []FeeRule) (FeeBreakdown, error) {
	if baseAmount.IsNegative() {
		return FeeBreakdown{}, fmt.Errorf("%w: base amount %s is negative", ErrInvalidAmount, baseAmount)
	}

	applied := make([]AppliedFee, 0, len(rules))
	total := baseAmount

	for _, rule := range rules {
		if rule.Value.IsNegative() {
			return FeeBreakdown{}, fmt.Errorf("%w: fee %q has a negative value", ErrInvalidAmount, rule.Label)
		}

		var amount decimal.Decimal
		switch rule.Kind {
		case FeeKindFixed:
			amount = rule.Value
		case FeeKindPercentage:
			amount = baseAmount.Mul(rule.Value).Div(hundred)
		default:
			return FeeBreakdown{}, fmt.Errorf("%w: fee %q has unknown kind %q", ErrInvalidAmount, rule.Label, rule.Kind)
		}

		applied = append(applied, AppliedFee{Label: rule.Label, Amount: amount})
		total = total.Add(amount)
	}

	return FeeBreakdown{
		BaseAmount:  baseAmount,
		AppliedFees: applied,
		GrandTotal:  total,
	}, nil
}

// Display formats an amount with two decimal places
func Display(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// FeeRuleDraft is a partial fee rule edited by an administrator
type FeeRuleDraft struct {
	Label *string
	Kind  *FeeKind
	Value *decimal.Decimal
}

// Build creates a fee rule from the draft. New rules default to a zero fixed fee.
func (d FeeRuleDraft) Build(feeID string, position int, now time.Time) (FeeRule, error) {
	rule := FeeRule{
		FeeID:     feeID,
		Label:     "Biaya Baru",
		Kind:      FeeKindFixed,
		Value:     decimal.Zero,
		Position:  position,
		UpdatedAt: now,
	}
	return d.merge(rule, now)
}

// ApplyTo merges the draft into an existing rule
func (d FeeRuleDraft) ApplyTo(rule FeeRule, now time.Time) (FeeRule, error) {
	return d.merge(rule, now)
}

func (d FeeRuleDraft) merge(rule FeeRule, now time.Time) (FeeRule, error) {
	if d.Label != nil {
		rule.Label = strings.TrimSpace(*d.Label)
	}
	if d.Kind != nil {
		rule.Kind = *d.Kind
	}
	if d.Value != nil {
		rule.Value = *d.Value
	}
	rule.UpdatedAt = now
	if err := rule.Validate(); err != nil {
		return FeeRule{}, err
	}
	return rule, nil
}
