package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const percentagePrecision = 2

// ParseNumeric parses a string into a decimal. Unlike a lenient parse it reports failure
// instead of substituting zero, so callers can drop non-numeric values.
func ParseNumeric(value string) (decimal.Decimal, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// NormalizeNumber returns the canonical string form of a numeric value ("100.0" -> "100"),
// or the trimmed input when it is not numeric.
func NormalizeNumber(value string) string {
	if d, ok := ParseNumeric(value); ok {
		return d.String()
	}
	return strings.TrimSpace(value)
}

// RoundPercentage rounds to 2 decimal places using round-half-to-even.
func RoundPercentage(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(percentagePrecision)
}

// FormatPercentage renders a percentage with exactly 2 decimal places.
func FormatPercentage(d decimal.Decimal) string {
	return RoundPercentage(d).StringFixed(percentagePrecision)
}
