package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// displayPrecision is the number of decimal places monetary values are
// rounded to at the output boundary. Internal arithmetic is never rounded.
const displayPrecision = 2

// SafeParse parses a string into a decimal, returning zero for invalid or
// empty input. Upstream APIs deliver numbers as strings with inconsistent
// formatting.
func SafeParse(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParsePtBR parses a number using a comma decimal separator ("0,83"), the
// format the BCB series API uses. Invalid input yields zero.
func ParsePtBR(value string) decimal.Decimal {
	return SafeParse(strings.ReplaceAll(value, ",", "."))
}

// Round2 rounds to display precision. Applied only when a value leaves the
// computation core.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(displayPrecision)
}

// Round2Slice rounds every element to display precision.
func Round2Slice(values []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = Round2(v)
	}
	return out
}
