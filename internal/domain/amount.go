package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits the ledger stores.
const AmountScale = 2

// ValidateAmount rejects non-positive amounts, amounts finer than a cent and
// amounts above max. A zero max disables the upper bound.
func ValidateAmount(amount, max decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("more than %d decimal places: %w", AmountScale, ErrInvalidAmount)
	}
	if !max.IsZero() && amount.GreaterThan(max) {
		return fmt.Errorf("exceeds maximum of %s: %w", max.StringFixed(AmountScale), ErrInvalidAmount)
	}
	return nil
}

// ParseAmount parses a decimal string such as "100.50".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ParseAmount: %w", ErrInvalidAmount)
	}
	return d, nil
}
