// Package moneypkg converts between decimal amount strings at the API edge
// and the int64 minor units used everywhere inside the engine.
package moneypkg

import (
	"github.com/shopspring/decimal"

	"github.com/go-pool/pool-bank/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string such as "125.50" into minor units.
// Amounts with more than two fractional digits or not strictly positive are
// rejected with domain.ErrInvalidAmount.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, domain.ErrInvalidAmount
	}

	if d.LessThanOrEqual(decimal.Zero) {
		return 0, domain.ErrInvalidAmount
	}

	minor := d.Mul(hundred)
	if !minor.IsInteger() {
		return 0, domain.ErrInvalidAmount
	}

	return minor.IntPart(), nil
}

// ParseNonNegativeAmount is ParseAmount that also admits "0" (initial balances).
func ParseNonNegativeAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, domain.ErrInvalidAmount
	}

	if d.IsNegative() {
		return 0, domain.ErrInvalidAmount
	}

	minor := d.Mul(hundred)
	if !minor.IsInteger() {
		return 0, domain.ErrInvalidAmount
	}

	return minor.IntPart(), nil
}

// Format renders minor units as a decimal string with two fractional digits.
func Format(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
