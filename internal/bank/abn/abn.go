// Package abn imports ABN AMRO statements from the internet banking export and from
// grabber exports.
package abn

import (
	"github.com/lox/bank-statement-importer/internal/amount"
	"github.com/lox/bank-statement-importer/internal/csvbase"
	"github.com/lox/bank-statement-importer/internal/identify"
	"github.com/lox/bank-statement-importer/internal/types"
)

// Header is the first line of the ABN AMRO CSV export
const Header = "Rekeningnummer;Muntsoort;Transactiedatum;Rentedatum;Beginsaldo;Eindsaldo;Transactiebedrag;Omschrijving"

const (
	Name          = "abn"
	GrabberName   = "abn-grabber"
	BVGrabberName = "abn-bv-grabber"
)

// New creates the importer for the native ABN AMRO export
func New(account, currency string) *csvbase.Importer {
	return csvbase.MustNew(csvbase.Profile{
		Name:    Name,
		Account: account,
		Dialect: csvbase.ABN,
		Mapping: csvbase.Mapping{
			Date:     csvbase.Date("Transactiedatum", "20060102"),
			Amount:   csvbase.Amount("Transactiebedrag", amount.Parse),
			Currency: csvbase.Static(currency),
			Description: csvbase.Columns(func(v ...string) (types.Description, error) {
				return ParseDescription(v[0])
			}, "Omschrijving"),
		},
		Identifier:     identify.HeaderPrefix(Header),
		FilenamePrefix: "abn.",
	})
}

// NewGrabber creates the importer for grabber exports of a personal account
func NewGrabber(account string) *csvbase.Importer {
	return newGrabber(GrabberName, account)
}

// NewBVGrabber creates the importer for grabber exports of a business account. The
// rules are the same as for personal accounts; only the account differs.
func NewBVGrabber(account string) *csvbase.Importer {
	return newGrabber(BVGrabberName, account)
}

func newGrabber(name, account string) *csvbase.Importer {
	return csvbase.MustNew(csvbase.Profile{
		Name:       name,
		Account:    account,
		Dialect:    csvbase.Grabber,
		Mapping:    csvbase.GrabberMapping(ParseGrabberNarration),
		Identifier: identify.Grabber(account),
	})
}
