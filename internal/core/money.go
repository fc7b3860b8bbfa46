// Package core holds the domain model and the pure evaluation logic:
// decimal money helpers, period window calculation and transaction
// aggregation. Nothing in this package touches a store or the clock
// beyond Today.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Intermediate ratios are rounded half-up to 4 decimal places before being
// scaled to a percentage; currency amounts display at 2 decimal places.
const (
	ratioScale    = 4
	currencyScale = 2
)

// ParseAmount parses a non-negative decimal amount from a string. It accepts
// both dot and comma separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// RoundCurrency rounds an amount half-up to 2 decimal places for display.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(currencyScale)
}

// Percentage computes part/whole*100 with the ratio rounded half-up to
// 4 decimal places first. A zero whole yields 0 rather than an error; the
// callers that must not divide by zero (budget limits) enforce positivity
// at write time.
func Percentage(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.DivRound(whole, ratioScale).Mul(decimal.NewFromInt(100)).InexactFloat64()
}
