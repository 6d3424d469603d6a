// Package csvbase maps rows of delimited statement exports onto transactions.
package csvbase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/lox/bank-statement-importer/internal/bank"
	"github.com/lox/bank-statement-importer/internal/identify"
	"github.com/lox/bank-statement-importer/internal/types"
	"github.com/shopspring/decimal"
)

// Mapping binds every transaction attribute to the export's columns
type Mapping struct {
	Date        Column[time.Time]
	Amount      Column[decimal.Decimal]
	Currency    Column[string]
	Description Column[types.Description]
}

// Map converts one row into a transaction. Parse and mapping errors are attributed to
// institution before they are wrapped with the field name.
func (m Mapping) Map(institution string, row types.RawRow) (types.Transaction, error) {
	date, err := extract(institution, "date", m.Date, row)
	if err != nil {
		return types.Transaction{}, err
	}
	amount, err := extract(institution, "amount", m.Amount, row)
	if err != nil {
		return types.Transaction{}, err
	}
	currency, err := extract(institution, "currency", m.Currency, row)
	if err != nil {
		return types.Transaction{}, err
	}
	desc, err := extract(institution, "description", m.Description, row)
	if err != nil {
		return types.Transaction{}, err
	}
	return types.Transaction{
		Date:      date,
		Amount:    amount,
		Currency:  strings.TrimSpace(currency),
		Payee:     desc.Payee,
		Narration: desc.Narration,
	}, nil
}

func extract[T any](institution, field string, c Column[T], row types.RawRow) (T, error) {
	v, err := c.Extract(row)
	if err != nil {
		return v, fmt.Errorf("%s: %w", field, attribute(institution, err))
	}
	return v, nil
}

// attribute stamps the institution on errors raised by rules that do not know it
func attribute(institution string, err error) error {
	if institution == "" {
		return err
	}
	var pe *types.ParseError
	if errors.As(err, &pe) && pe.Institution == "" {
		pe.Institution = institution
	}
	var me *types.MappingError
	if errors.As(err, &me) && me.Institution == "" {
		me.Institution = institution
	}
	return err
}

// Profile is the static configuration of one institution importer
type Profile struct {
	Name           string
	Account        string
	Dialect        Dialect
	Mapping        Mapping
	Identifier     identify.Identifier
	FilenamePrefix string
}

// Importer parses exports described by a Profile
type Importer struct {
	profile Profile
}

// New creates an importer for profile
func New(profile Profile) (*Importer, error) {
	if profile.Name == "" {
		return nil, errors.New("profile name is required")
	}
	if err := profile.Dialect.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", profile.Name, err)
	}
	if profile.Identifier == nil {
		return nil, fmt.Errorf("%s: identifier is required", profile.Name)
	}
	m := profile.Mapping
	if m.Date.Parse == nil || m.Amount.Parse == nil || m.Currency.Parse == nil || m.Description.Parse == nil {
		return nil, fmt.Errorf("%s: mapping must bind date, amount, currency and description", profile.Name)
	}
	return &Importer{profile: profile}, nil
}

// MustNew is like New but panics on an invalid profile
func MustNew(profile Profile) *Importer {
	imp, err := New(profile)
	if err != nil {
		panic(err)
	}
	return imp
}

// Name returns the name of the importer
func (i *Importer) Name() string {
	return i.profile.Name
}

// Account returns the ledger account of the importer
func (i *Importer) Account() string {
	return i.profile.Account
}

// Profile returns the importer configuration
func (i *Importer) Profile() Profile {
	return i.profile
}

// Identify reports whether the file belongs to this importer
func (i *Importer) Identify(path string) (bool, error) {
	return i.profile.Identifier.Identify(path)
}

// Filename returns the archive name of a source file
func (i *Importer) Filename(path string) string {
	return i.profile.FilenamePrefix + filepath.Base(path)
}

// ParseTransactions reads the header and maps every row in order. The first failing
// row aborts the file.
func (i *Importer) ParseTransactions(ctx context.Context, r io.Reader) ([]types.Transaction, error) {
	rows, err := i.ReadRows(r)
	if err != nil {
		return nil, err
	}

	transactions := make([]types.Transaction, 0, len(rows))
	for idx, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := i.profile.Mapping.Map(i.profile.Name, row)
		if err != nil {
			// the header is record 1
			return nil, fmt.Errorf("row %d: %w", idx+2, err)
		}
		t.Bank = i.profile.Name
		transactions = append(transactions, t)
	}
	return transactions, nil
}

// ReadRows reads the export into raw rows keyed by header name
func (i *Importer) ReadRows(r io.Reader) ([]types.RawRow, error) {
	cr := i.profile.Dialect.NewReader(identify.SkipBOM(r))

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", i.profile.Name, err)
	}
	for idx := range header {
		header[idx] = strings.TrimSpace(header[idx])
	}

	var rows []types.RawRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: reading row: %w", i.profile.Name, err)
		}
		if isBlank(record) {
			continue
		}
		row := make(types.RawRow, len(header))
		for idx, value := range record {
			if idx < len(header) {
				row[header[idx]] = value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

var _ bank.Bank = (*Importer)(nil)
