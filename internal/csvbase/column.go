package csvbase

import (
	"fmt"
	"strings"
	"time"

	"github.com/lox/bank-statement-importer/internal/types"
	"github.com/shopspring/decimal"
)

// Column binds one transaction attribute to its source columns and a conversion.
// Values are handed to Parse in the order of Names. A column with no names ignores
// the row entirely.
type Column[T any] struct {
	Names []string
	Parse func(values ...string) (T, error)
}

// Extract looks up the bound columns in row and converts them
func (c Column[T]) Extract(row types.RawRow) (T, error) {
	var zero T
	if c.Parse == nil {
		return zero, fmt.Errorf("column %v has no parser", c.Names)
	}
	values := make([]string, len(c.Names))
	for i, name := range c.Names {
		v, ok := row[name]
		if !ok {
			return zero, &types.MappingError{Column: name, Available: row.Columns()}
		}
		values[i] = v
	}
	return c.Parse(values...)
}

// Columns binds several source columns to a single attribute
func Columns[T any](parse func(values ...string) (T, error), names ...string) Column[T] {
	return Column[T]{Names: names, Parse: parse}
}

// Static always yields value, for attributes the export does not carry
func Static[T any](value T) Column[T] {
	return Column[T]{Parse: func(...string) (T, error) { return value, nil }}
}

// Text yields the raw cell
func Text(name string) Column[string] {
	return Columns(func(v ...string) (string, error) { return v[0], nil }, name)
}

// Date parses the cell with a Go time layout
func Date(name, layout string) Column[time.Time] {
	return Columns(func(v ...string) (time.Time, error) {
		t, err := time.Parse(layout, strings.TrimSpace(v[0]))
		if err != nil {
			return time.Time{}, &types.ParseError{
				Text:   []string{v[0]},
				Reason: fmt.Sprintf("invalid date (want %s)", layout),
			}
		}
		return t, nil
	}, name)
}

// Amount parses the cell with one of the amount package parsers
func Amount(name string, parse func(string) (decimal.Decimal, error)) Column[decimal.Decimal] {
	return Columns(func(v ...string) (decimal.Decimal, error) { return parse(v[0]) }, name)
}

// Optional yields the cell as a pointer. An empty cell is still a present value.
func Optional(name string) Column[*string] {
	return Columns(func(v ...string) (*string, error) { return types.StringPtr(v[0]), nil }, name)
}

// NarrationOnly turns a text column into a description without payee
func NarrationOnly(c Column[string]) Column[types.Description] {
	return Column[types.Description]{
		Names: c.Names,
		Parse: func(v ...string) (types.Description, error) {
			n, err := c.Parse(v...)
			if err != nil {
				return types.Description{}, err
			}
			return types.Description{Narration: n}, nil
		},
	}
}

// PayeeAndNarration combines an Optional payee column with a narration rule that reads
// the remaining columns.
func PayeeAndNarration(payee string, rule func(values ...string) (string, error), names ...string) Column[types.Description] {
	p := Optional(payee)
	return Column[types.Description]{
		Names: append(p.Names, names...),
		Parse: func(v ...string) (types.Description, error) {
			n, err := rule(v[1:]...)
			if err != nil {
				return types.Description{}, err
			}
			payee, err := p.Parse(v[0])
			if err != nil {
				return types.Description{}, err
			}
			return types.Description{Payee: payee, Narration: n}, nil
		},
	}
}
