package csvbase

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Dialect describes how an export delimits fields and lines
type Dialect struct {
	Name             string
	Comma            rune
	Quote            rune
	TrimLeadingSpace bool
	LineTerminator   string
}

var (
	// ING semicolon export
	ING = Dialect{Name: "ing", Comma: ';', Quote: '"', LineTerminator: "\r\n"}
	// ABN AMRO semicolon export
	ABN = Dialect{Name: "abn", Comma: ';', Quote: '"', LineTerminator: "\r\n"}
	// Amex comma export
	Amex = Dialect{Name: "amex", Comma: ',', Quote: '"', LineTerminator: "\r\n"}
	// Revolut comma export
	Revolut = Dialect{Name: "revolut", Comma: ',', Quote: '"', LineTerminator: "\r\n"}
	// Grabber is written by the csv-grabber tool
	Grabber = Dialect{Name: "csv-grabber", Comma: ',', Quote: '"', TrimLeadingSpace: true, LineTerminator: "\n"}
)

// Validate checks the dialect can be expressed with encoding/csv
func (d Dialect) Validate() error {
	if d.Comma == 0 || d.Comma == '\r' || d.Comma == '\n' || d.Comma == '"' {
		return fmt.Errorf("dialect %s: invalid delimiter %q", d.Name, d.Comma)
	}
	if d.Quote != 0 && d.Quote != '"' {
		return fmt.Errorf("dialect %s: unsupported quote character %q", d.Name, d.Quote)
	}
	switch d.LineTerminator {
	case "", "\n", "\r\n":
	default:
		return fmt.Errorf("dialect %s: unsupported line terminator %q", d.Name, d.LineTerminator)
	}
	return nil
}

// NewReader returns a csv.Reader configured for the dialect. Rows may have a different
// number of fields than the header; missing bound columns are reported by the mapper.
// A quote inside an unquoted field is kept as a literal character.
func (d Dialect) NewReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = d.Comma
	cr.TrimLeadingSpace = d.TrimLeadingSpace
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr
}

// NewWriter returns a csv.Writer that emits the dialect
func (d Dialect) NewWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = d.Comma
	cw.UseCRLF = d.LineTerminator == "\r\n"
	return cw
}
