// Package amount converts statement amount tokens into exact decimals.
package amount

import (
	"regexp"
	"strings"

	"github.com/lox/bank-statement-importer/internal/types"
	"github.com/shopspring/decimal"
)

var (
	// 1234,56 | 1.234,56 | -12,5
	commaDecimal = regexp.MustCompile(`^[+-]?(?:\d+|\d{1,3}(?:\.\d{3})+),\d+$`)
	// 1234 | 1.234.567 (thousands only)
	groupedInteger = regexp.MustCompile(`^[+-]?\d{1,3}(?:\.\d{3}){2,}$`)
	plainDecimal   = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?$`)
)

// Polarity names the two indicator tokens an institution uses to tell credits from debits
type Polarity struct {
	Positive string
	Negative string
}

// CreditDebit is the indicator pair used by ING exports
var CreditDebit = Polarity{Positive: "Credit", Negative: "Debit"}

// Parse reads a locale formatted amount that uses a decimal comma and optional dot
// thousands separators. Tokens without a comma are read as plain decimals.
func Parse(token string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(token)
	switch {
	case commaDecimal.MatchString(clean):
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	case groupedInteger.MatchString(clean):
		clean = strings.ReplaceAll(clean, ".", "")
	case plainDecimal.MatchString(clean):
	default:
		return decimal.Zero, invalid(token)
	}
	return fromString(clean, token)
}

// ParsePlain reads a dot-decimal amount such as "-12.50"
func ParsePlain(token string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(token)
	if !plainDecimal.MatchString(clean) {
		return decimal.Zero, invalid(token)
	}
	return fromString(clean, token)
}

// ParseNegated parses a locale amount and flips its sign
func ParseNegated(token string) (decimal.Decimal, error) {
	d, err := Parse(token)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Neg(), nil
}

// ParseWithPolarity parses a locale amount and applies the sign given by a separate
// debit/credit indicator column.
func ParseWithPolarity(token, indicator string, p Polarity) (decimal.Decimal, error) {
	d, err := Parse(token)
	if err != nil {
		return decimal.Zero, err
	}
	switch strings.TrimSpace(indicator) {
	case p.Positive:
		return d, nil
	case p.Negative:
		return d.Neg(), nil
	}
	return decimal.Zero, &types.ParseError{
		Code:   indicator,
		Text:   []string{token, indicator},
		Reason: "unknown debit/credit indicator",
	}
}

func fromString(clean, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, invalid(raw)
	}
	return d, nil
}

func invalid(token string) error {
	return &types.ParseError{
		Text:   []string{token},
		Reason: "invalid amount",
	}
}
