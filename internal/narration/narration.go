// Package narration holds the text helpers shared by the per-institution narration rules.
//
// The helpers are pure: the same input always yields the same output. Each institution
// package composes them in a dispatch over its own transaction type codes and returns a
// ParseError for any combination it does not recognize.
package narration

import (
	"regexp"
	"strings"

	"github.com/lox/bank-statement-importer/internal/types"
)

var (
	sepaPattern   = regexp.MustCompile(`(?:Naam|Name): (.*)(?:Omschrijving|Description): (.*) (?:Kenmerk|Reference)`)
	tagsPattern   = regexp.MustCompile(`/NAME/([^/]*)/.*/?REMI/([^/]*)/`)
	commaPattern  = regexp.MustCompile(`,([^\d ])`)
	spacesPattern = regexp.MustCompile(` {2,}`)
	breakPattern  = regexp.MustCompile(`(?i)<br\s*/?>`)
)

// Error builds the ParseError returned when no rule matches
func Error(code string, text ...string) *types.ParseError {
	return &types.ParseError{
		Code: code,
		Text: append([]string(nil), text...),
	}
}

// SplitSEPA extracts the counterparty and remittance description from SEPA text such as
// "Naam: Jane Doe Omschrijving: invoice 123 Kenmerk: X".
func SplitSEPA(text string) (payee, description string, ok bool) {
	m := sepaPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// SplitTags reads the NAME and REMI segments of slash-tagged remittance text
// ("/TRTP/.../NAME/x/.../REMI/y/") and joins them as "x, y".
func SplitTags(text string) (string, bool) {
	m := tagsPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", false
	}
	return m[1] + ", " + m[2], true
}

// RepairCommas inserts a space after a comma that is directly followed by something other
// than a space or digit. Card exports glue merchant and place together ("Shop,Amsterdam").
func RepairCommas(s string) string {
	return commaPattern.ReplaceAllString(s, ", $1")
}

// CollapseSpaces replaces runs of two or more spaces with one
func CollapseSpaces(s string) string {
	return spacesPattern.ReplaceAllString(s, " ")
}

// StripPayeePrefix removes a payee name repeated at the start of the narration
func StripPayeePrefix(payee, narration string) string {
	if strings.HasPrefix(narration, payee) {
		return strings.TrimSpace(narration[len(payee):])
	}
	return narration
}

// SplitLines splits on \r\n, \r and \n. An empty string has no lines.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// NormalizeBreaks turns newlines and HTML line breaks into single spaces
func NormalizeBreaks(s string) string {
	s = breakPattern.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// Plain returns a description with no payee
func Plain(narration string) types.Description {
	return types.Description{Narration: narration}
}

// WithPayee returns a description with a payee
func WithPayee(payee, narration string) types.Description {
	return types.Description{Payee: types.StringPtr(payee), Narration: narration}
}
