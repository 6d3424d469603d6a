package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawRow maps a column name to the cell value of one source line
type RawRow map[string]string

// Columns returns the column names present in the row
func (r RawRow) Columns() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

// Description is the payee/narration pair derived from the free-text fields of a row.
// A nil Payee means the institution gave no counterparty, which is not the same as an
// empty one.
type Description struct {
	Payee     *string
	Narration string
}

// Transaction is a single normalized statement line, independent of the source format
type Transaction struct {
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Payee     *string         `json:"payee"`
	Narration string          `json:"narration"`
	Bank      string          `json:"bank"`
	Postings  []Posting       `json:"postings,omitempty"`
}

// Posting is an extra ledger line booked against a transaction, next to the posting on
// the importer's own account. Line holds the amount and currency as written.
type Posting struct {
	Flag    string `json:"flag,omitempty"`
	Account string `json:"account"`
	Line    string `json:"line,omitempty"`
}

// PayeeString returns the payee, or an empty string when there is none
func (t Transaction) PayeeString() string {
	if t.Payee == nil {
		return ""
	}
	return *t.Payee
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
