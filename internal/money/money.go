// Package money provides fixed-point monetary arithmetic for the storefront.
// All amounts are euros quantized to two decimal places with half-up rounding
// at every boundary where a value is persisted or displayed. Binary floating
// point is never used for money.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Shipping rule constants.
var (
	// FreeShippingThreshold is the subtotal at or above which shipping is free.
	FreeShippingThreshold = decimal.RequireFromString("39.00")

	// FlatShipping is the flat shipping cost applied below the threshold.
	FlatShipping = decimal.RequireFromString("4.90")
)

// Zero is the canonical zero amount.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// Parse parses a string-decimal price as stored in the session cart payload.
// Returns an error for unparseable or negative values.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %q", s)
	}
	return d, nil
}

// Round2 quantizes an amount to two decimal places, rounding half-up.
// decimal.Round rounds half away from zero, which is half-up for the
// non-negative amounts this system deals in.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal computes unit price times quantity, quantized to two decimals.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return Round2(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// ShippingFor applies the flat-rate shipping rule to a subtotal:
// zero for an empty cart, zero at or above the free-shipping threshold,
// otherwise the flat rate.
func ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.IsZero() {
		return decimal.Zero
	}
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShipping
}

// MinorUnits converts an amount to integer minor currency units (cents),
// quantizing first so a stray third decimal cannot shift the result.
func MinorUnits(d decimal.Decimal) int64 {
	return Round2(d).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FormatEUR renders an amount for logs, documents, and emails.
func FormatEUR(d decimal.Decimal) string {
	return "€" + Round2(d).StringFixed(2)
}
