// Package revolut imports Revolut statements from the app export and from grabber
// exports.
package revolut

import (
	"strings"

	"github.com/lox/bank-statement-importer/internal/amount"
	"github.com/lox/bank-statement-importer/internal/csvbase"
	"github.com/lox/bank-statement-importer/internal/identify"
	"github.com/lox/bank-statement-importer/internal/narration"
	"github.com/lox/bank-statement-importer/internal/types"
)

// Header is the first line of the Revolut CSV export
const Header = "Date started (UTC),Date completed (UTC),ID,Type,Description,Reference,Payer,Card number,Orig currency,Orig amount,Payment currency,Amount,Fee,Balance,Account,Beneficiary account number,Beneficiary sort code or routing number,Beneficiary IBAN,Beneficiary BIC"

const (
	Name          = "revolut"
	GrabberName   = "revolut-grabber"
	BVGrabberName = "revolut-bv-grabber"
)

// New creates the importer for the native Revolut export
func New(account, currency string) *csvbase.Importer {
	return csvbase.MustNew(csvbase.Profile{
		Name:    Name,
		Account: account,
		Dialect: csvbase.Revolut,
		Mapping: csvbase.Mapping{
			Date:     csvbase.Date("Date completed (UTC)", "2006-01-02"),
			Amount:   csvbase.Amount("Amount", amount.ParsePlain),
			Currency: csvbase.Static(currency),
			Description: csvbase.Columns(func(v ...string) (types.Description, error) {
				return ParseDescription(v[0], v[1]), nil
			}, "Description", "Reference"),
		},
		Identifier:     identify.HeaderPrefix(Header),
		FilenamePrefix: "revolut.",
	})
}

// NewGrabber creates the importer for grabber exports of a personal account
func NewGrabber(account string) *csvbase.Importer {
	return newGrabber(GrabberName, account)
}

// NewBVGrabber creates the importer for grabber exports of a business account
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

// ParseDescription picks payee and narration from the description and reference
// columns. Without a reference the description is all there is; with one, the
// description names the counterparty.
func ParseDescription(description, reference string) types.Description {
	// The export always carries the Reference column, so an empty or blank cell is
	// what "no reference" looks like. Such rows keep the description as narration
	// and get no payee, instead of an empty narration under a stripped payee.
	if strings.TrimSpace(reference) == "" {
		return narration.Plain(description)
	}
	payee := strings.ReplaceAll(description, "Aan ", "")
	payee = strings.ReplaceAll(payee, "Geld toegevoegd van ", "")
	return narration.WithPayee(strings.TrimSpace(payee), reference)
}

// ParseGrabberNarration cleans the narration of a grabber row. Top-ups repeat the
// source account on the first line.
func ParseGrabberNarration(code, text string) (string, error) {
	if code == "TOPUP" {
		lines := strings.Split(text, "\n")
		text = strings.Join(lines[1:], " ")
	}
	return strings.ReplaceAll(text, "\n", " "), nil
}
