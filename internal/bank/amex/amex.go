// Package amex imports American Express card statements.
package amex

import (
	"github.com/lox/bank-statement-importer/internal/amount"
	"github.com/lox/bank-statement-importer/internal/csvbase"
	"github.com/lox/bank-statement-importer/internal/identify"
	"github.com/lox/bank-statement-importer/internal/narration"
)

// Header is the first line of the Dutch Amex CSV export
const Header = "Datum,Omschrijving,Bedrag,Aanvullende informatie,Vermeld op uw rekeningoverzicht als,Adres,Plaats,Postcode,Land,Referentie"

// Name of the importer
const Name = "amex"

// New creates the importer for Amex exports. Charges are reported as positive
// amounts and are negated so they reduce the liability account.
func New(account, currency string) *csvbase.Importer {
	return csvbase.MustNew(csvbase.Profile{
		Name:    Name,
		Account: account,
		Dialect: csvbase.Amex,
		Mapping: csvbase.Mapping{
			Date:     csvbase.Date("Datum", "01/02/2006"),
			Amount:   csvbase.Amount("Bedrag", amount.ParseNegated),
			Currency: csvbase.Static(currency),
			Description: csvbase.NarrationOnly(csvbase.Columns(func(v ...string) (string, error) {
				return ParseNarration(v[0]), nil
			}, "Omschrijving")),
		},
		Identifier:     identify.HeaderPrefix(Header),
		FilenamePrefix: "amex.",
	})
}

// ParseNarration flattens the multi-line description
func ParseNarration(description string) string {
	return narration.NormalizeBreaks(description)
}
