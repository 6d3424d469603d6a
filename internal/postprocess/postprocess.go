// Package postprocess tidies extracted transactions before they are written out.
package postprocess

import (
	"regexp"
	"strings"

	"github.com/lox/bank-statement-importer/internal/types"
)

var nonPrinting = regexp.MustCompile(`[\x00-\x1F\x7F-\x9F]`)

const viaSeparator = " via "

// CleanUp strips control characters from the narration and drops the payment
// provider from payees such as "Shop via Mollie".
func CleanUp(t types.Transaction) types.Transaction {
	t.Narration = nonPrinting.ReplaceAllString(t.Narration, "")
	if t.Payee != nil && *t.Payee != "" {
		if parts := strings.Split(*t.Payee, viaSeparator); len(parts) == 2 {
			t.Payee = types.StringPtr(parts[0])
		}
	}
	return t
}

// CleanUpAll returns cleaned copies of ts in the same order
func CleanUpAll(ts []types.Transaction) []types.Transaction {
	out := make([]types.Transaction, len(ts))
	for i, t := range ts {
		out[i] = CleanUp(t)
	}
	return out
}
