package csvbase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lox/bank-statement-importer/internal/amount"
	"github.com/lox/bank-statement-importer/internal/identify"
	"github.com/lox/bank-statement-importer/internal/narration"
	"github.com/lox/bank-statement-importer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sepaProfile() Profile {
	return Profile{
		Name:    "test",
		Account: "Assets:Test",
		Dialect: ABN,
		Mapping: Mapping{
			Date:     Date("date", "20060102"),
			Amount:   Amount("amount", amount.Parse),
			Currency: Static("EUR"),
			Description: Columns(func(v ...string) (types.Description, error) {
				payee, desc, ok := narration.SplitSEPA(v[0])
				if !ok {
					return types.Description{}, narration.Error("SEPA", v[0])
				}
				return narration.WithPayee(payee, desc), nil
			}, "text"),
		},
		Identifier:     identify.HeaderPrefix("date;amount;text"),
		FilenamePrefix: "test.",
	}
}

func TestImporter_EndToEnd(t *testing.T) {
	export := "date;amount;text\r\n" +
		"20240115;-1.234,56;Naam: Jane Doe Omschrijving: invoice 123 Kenmerk: X\r\n"

	txns, err := MustNew(sepaProfile()).ParseTransactions(context.Background(), strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "2024-01-15", txns[0].Date.Format("2006-01-02"))
	assert.Equal(t, "-1234.56", txns[0].Amount.String())
	assert.Equal(t, "EUR", txns[0].Currency)
	assert.Equal(t, "Jane Doe", *txns[0].Payee)
	assert.Equal(t, "invoice 123", txns[0].Narration)
	assert.Equal(t, "test", txns[0].Bank)
}

func TestImporter_BOMAndBlankLines(t *testing.T) {
	export := "\ufeffdate ; amount;text\r\n" +
		"\r\n" +
		"20240115;10,00;Naam: A Omschrijving: B Kenmerk: C\r\n" +
		";;\r\n"

	txns, err := MustNew(sepaProfile()).ParseTransactions(context.Background(), strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "10", txns[0].Amount.String())
}

func TestImporter_EmptyInput(t *testing.T) {
	txns, err := MustNew(sepaProfile()).ParseTransactions(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestImporter_FailFast(t *testing.T) {
	export := "date;amount;text\r\n" +
		"20240115;10,00;Naam: A Omschrijving: B Kenmerk: C\r\n" +
		"20240116;10,00;unknown\r\n" +
		"20240117;10,00;Naam: A Omschrijving: B Kenmerk: C\r\n"

	txns, err := MustNew(sepaProfile()).ParseTransactions(context.Background(), strings.NewReader(export))
	assert.Nil(t, txns)
	var pe *types.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "test", pe.Institution)
	assert.Equal(t, []string{"unknown"}, pe.Text)
	assert.Contains(t, err.Error(), `row 3: description: test: could not parse description (type "SEPA"): "unknown"`)
}

func TestImporter_MissingColumn(t *testing.T) {
	export := "date;amount\r\n20240115;10,00\r\n"

	_, err := MustNew(sepaProfile()).ParseTransactions(context.Background(), strings.NewReader(export))
	var me *types.MappingError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "text", me.Column)
	assert.ElementsMatch(t, []string{"date", "amount"}, me.Available)
	assert.Equal(t, `test: missing column "text" (have amount, date)`, me.Error())
	assert.EqualError(t, err, `row 2: description: test: missing column "text" (have amount, date)`)
}

func TestImporter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	export := "date;amount;text\r\n20240115;10,00;Naam: A Omschrijving: B Kenmerk: C\r\n"

	_, err := MustNew(sepaProfile()).ParseTransactions(ctx, strings.NewReader(export))
	require.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidProfile(t *testing.T) {
	p := sepaProfile()
	p.Name = ""
	_, err := New(p)
	require.Error(t, err)

	p = sepaProfile()
	p.Identifier = nil
	_, err = New(p)
	require.Error(t, err)

	p = sepaProfile()
	p.Mapping.Description = Column[types.Description]{}
	_, err = New(p)
	require.Error(t, err)

	p = sepaProfile()
	p.Dialect = Dialect{Name: "bad", Comma: '\n'}
	_, err = New(p)
	require.Error(t, err)

	assert.Panics(t, func() { MustNew(Profile{}) })
}

func TestColumns(t *testing.T) {
	row := types.RawRow{"a": "1", "b": "2", "empty": ""}

	v, err := Static(42).Extract(types.RawRow{})
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	s, err := Text("b").Extract(row)
	require.NoError(t, err)
	assert.Equal(t, "2", s)

	joined, err := Columns(func(v ...string) (string, error) {
		return strings.Join(v, "+"), nil
	}, "b", "a").Extract(row)
	require.NoError(t, err)
	assert.Equal(t, "2+1", joined)

	p, err := Optional("empty").Extract(row)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "", *p)

	d, err := NarrationOnly(Text("a")).Extract(row)
	require.NoError(t, err)
	assert.Equal(t, types.Description{Narration: "1"}, d)

	_, err = Date("a", "2006-01-02").Extract(row)
	var pe *types.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []string{"1"}, pe.Text)

	_, err = Text("c").Extract(row)
	var me *types.MappingError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "c", me.Column)
}

func TestGrabberMapping(t *testing.T) {
	m := GrabberMapping(func(code, text string) (string, error) {
		return code + ":" + text, nil
	})
	row := types.RawRow{
		"id": "1", "date": "2024-02-01", "amount": "-3.10", "currency": " EUR ",
		"payee": "", "narration": "coffee", "bankTransactionCode": "CARD",
	}
	txn, err := m.Map("grabber", row)
	require.NoError(t, err)
	assert.Equal(t, "EUR", txn.Currency)
	assert.Equal(t, "-3.1", txn.Amount.String())
	require.NotNil(t, txn.Payee)
	assert.Equal(t, "", *txn.Payee)
	assert.Equal(t, "CARD:coffee", txn.Narration)
}

func TestDialects(t *testing.T) {
	for _, d := range []Dialect{ING, ABN, Amex, Revolut, Grabber} {
		require.NoError(t, d.Validate(), d.Name)
	}

	var buf bytes.Buffer
	w := ABN.NewWriter(&buf)
	require.NoError(t, w.Write([]string{"a", "b;c"}))
	w.Flush()
	require.NoError(t, w.Error())
	assert.Equal(t, "a;\"b;c\"\r\n", buf.String())

	r := Grabber.NewReader(strings.NewReader("a, b\n1,  2\n"))
	records, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}}, records)

	r = ABN.NewReader(strings.NewReader("text;n\r\nShop \"Best\" BV;\"1\"\r\n"))
	records, err = r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{`Shop "Best" BV`, "1"}, records[1])
}
