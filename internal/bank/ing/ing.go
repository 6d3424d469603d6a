package ing

import (
	"github.com/lox/bank-statement-importer/internal/amount"
	"github.com/lox/bank-statement-importer/internal/bank"
	"github.com/lox/bank-statement-importer/internal/csvbase"
	"github.com/lox/bank-statement-importer/internal/identify"
	"github.com/lox/bank-statement-importer/internal/types"
	"github.com/shopspring/decimal"
)

// Header is the first line of the ING Netherlands CSV export
const Header = `"Date";"Name / Description";"Account";"Counterparty";"Code";"Debit/credit";"Amount (EUR)";"Transaction type";"Notifications";"Resulting balance";"Tag"`

const (
	// Name of the native export importer
	Name = "ing"
	// GrabberName is the name of the grabber export importer
	GrabberName = "ing-grabber"
)

// New creates the importer for the native ING export. The export has no currency
// column, so every row is booked in currency.
func New(account, currency string) *csvbase.Importer {
	return csvbase.MustNew(csvbase.Profile{
		Name:    Name,
		Account: account,
		Dialect: csvbase.ING,
		Mapping: csvbase.Mapping{
			Date: csvbase.Date("Date", "20060102"),
			Amount: csvbase.Columns(func(v ...string) (decimal.Decimal, error) {
				return amount.ParseWithPolarity(v[0], v[1], amount.CreditDebit)
			}, "Amount (EUR)", "Debit/credit"),
			Currency: csvbase.Static(currency),
			Description: csvbase.Columns(func(v ...string) (types.Description, error) {
				return ParseDescription(v[0], v[1], v[2])
			}, "Transaction type", "Name / Description", "Notifications"),
		},
		Identifier:     identify.HeaderPrefix(Header),
		FilenamePrefix: "ing.",
	})
}

// NewGrabber creates the importer for grabber exports of account
func NewGrabber(account string) *csvbase.Importer {
	return csvbase.MustNew(csvbase.Profile{
		Name:       GrabberName,
		Account:    account,
		Dialect:    csvbase.Grabber,
		Mapping:    csvbase.GrabberMapping(ParseGrabberNarration),
		Identifier: identify.Grabber(account),
	})
}

// Ensure the importers implement the Bank interface
var _ bank.Bank = (*csvbase.Importer)(nil)
