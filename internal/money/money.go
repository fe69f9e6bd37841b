// Package money wraps shopspring/decimal with the two-decimal SAR
// conventions used across the pipeline.
package money

import (
	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

// FromFloat creates a decimal from a float, rounded half-up at the
// second decimal place.
func FromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// FromString parses a decimal from string
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// MustFromString parses a decimal from string, panics on error
func MustFromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Format renders a monetary amount with exactly two decimal digits
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatAbs renders the absolute amount with exactly two decimal digits
func FormatAbs(d decimal.Decimal) string {
	return d.Abs().StringFixed(2)
}

// Null wraps a float into a present NullDecimal, rounded to 2 places
func Null(v float64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: FromFloat(v), Valid: true}
}

// NullOf wraps a decimal into a present NullDecimal
func NullOf(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Mul multiplies two decimals, rounded to 2 places
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Round(2)
}

// CalculateVAT computes the VAT portion: amount * (rate/100), 2 places
func CalculateVAT(amount, ratePercent decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	return amount.Mul(ratePercent).Div(hundred).Round(2)
}

// Sum adds a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}
