package abn

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lox/bank-statement-importer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactions_SEPA(t *testing.T) {
	export := Header + "\r\n" +
		"NL11ABNA0123456789;EUR;20240115;20240115;1000,00;2234,56;1.234,56;SEPA Overboeking IBAN: NL02RABO0123456789 BIC: RABONL2U Naam: Jane Doe Omschrijving: invoice 123 Kenmerk: X\r\n"

	txns, err := New("Assets:NL:ABN:Checking", "EUR").ParseTransactions(context.Background(), strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, txns, 1)

	txn := txns[0]
	assert.Equal(t, "2024-01-15", txn.Date.Format("2006-01-02"))
	assert.Equal(t, "1234.56", txn.Amount.StringFixed(2))
	assert.Equal(t, "EUR", txn.Currency)
	require.NotNil(t, txn.Payee)
	assert.Equal(t, "Jane Doe", *txn.Payee)
	assert.Equal(t, "invoice 123", txn.Narration)
	assert.Equal(t, Name, txn.Bank)
}

func TestParseTransactions_InvalidAmount(t *testing.T) {
	export := Header + "\r\n" +
		"NL11ABNA0123456789;EUR;20240115;20240115;1000,00;2234,56;twelve;SEPA Naam: A Omschrijving: B Kenmerk: C\r\n"

	_, err := New("Assets:NL:ABN:Checking", "EUR").ParseTransactions(context.Background(), strings.NewReader(export))
	var pe *types.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, Name, pe.Institution)
	assert.Equal(t, []string{"twelve"}, pe.Text)
	assert.Contains(t, err.Error(), `row 2: amount: abn: invalid amount: "twelve"`)
}

func TestParseTransactions_UnknownDescription(t *testing.T) {
	text := "GEA   NR:00AB12   01.02.24/10.15 Amsterdam"
	export := Header + "\r\n" +
		"NL11ABNA0123456789;EUR;20240115;20240115;1000,00;950,00;-50,00;" + text + "\r\n"

	_, err := New("Assets:NL:ABN:Checking", "EUR").ParseTransactions(context.Background(), strings.NewReader(export))
	require.Error(t, err)
	assert.EqualError(t, err, `row 2: description: abn: could not parse description (type "GEA"): "`+text+`"`)
}

func TestParseTransactions_QuoteInUnquotedField(t *testing.T) {
	export := Header + "\r\n" +
		`NL11ABNA0123456789;EUR;20240115;20240115;1000,00;990,00;-10,00;SEPA Overboeking IBAN: NL01 Naam: Shop "Best" BV Omschrijving: order 1 Kenmerk: X` + "\r\n"

	txns, err := New("Assets:NL:ABN:Checking", "EUR").ParseTransactions(context.Background(), strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	require.NotNil(t, txns[0].Payee)
	assert.Equal(t, `Shop "Best" BV`, *txns[0].Payee)
	assert.Equal(t, "order 1", txns[0].Narration)
	assert.Equal(t, "-10.00", txns[0].Amount.StringFixed(2))
}

func TestParseDescription(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		payee     *string
		narration string
	}{
		{
			name:      "bank costs",
			text:      "ABN AMRO Bank N.V.               Basic Package               3,25",
			narration: "ABN AMRO Bank N.V. Basic Package 3,25",
		},
		{
			name:      "card payment",
			text:      "BEA, Betaalpas                   Albert Heijn 1234,PAS123       NR:AB12CD, 01.02.24/10:15      AMSTERDAM",
			narration: "Albert Heijn 1234, PAS123 NR:AB12CD, 01.02.24/10:15 AMSTERDAM",
		},
		{
			name:      "sepa",
			text:      "SEPA Incasso algemeen doorlopend Incassant: NL05ZZZ Naam: Vattenfall Omschrijving: Termijn 01 Kenmerk: 987",
			payee:     types.StringPtr("Vattenfall"),
			narration: "Termijn 01",
		},
		{
			name:      "tagged",
			text:      "/TRTP/SEPA OVERBOEKING/IBAN/NL02RABO0123456789/BIC/RABONL2U/NAME/ACME Corp/REMI/order 55/EREF/NOTPROVIDED",
			narration: "ACME Corp, order 55",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDescription(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.payee, got.Payee)
			assert.Equal(t, tt.narration, got.Narration)
		})
	}
}

func TestParseDescription_Unmatched(t *testing.T) {
	tests := []struct {
		text string
		code string
	}{
		{"GEA   NR:00AB12   01.02.24/10.15 Amsterdam", "GEA"},
		{"SEPA Overboeking without markers", "SEPA"},
		{"/TRTP/Acceptgiro/IBAN/NL02", "/TRTP/"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, err := ParseDescription(tt.text)
			var pe *types.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.code, pe.Code)
			assert.Equal(t, []string{tt.text}, pe.Text)
		})
	}
}

func TestParseDescription_Deterministic(t *testing.T) {
	text := "SEPA Overboeking Naam: Jane Doe Omschrijving: invoice 123 Kenmerk: X"
	first, err := ParseDescription(text)
	require.NoError(t, err)
	second, err := ParseDescription(text)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseGrabberNarration(t *testing.T) {
	tests := []struct {
		name string
		code string
		text string
		want string
	}{
		{
			name: "card payment",
			code: "426",
			text: "BEA, Betaalpas\nAlbert Heijn 1234,PAS123\nPAS123\nNR:AB12CD, 01.02.24/10:15",
			want: "Albert Heijn 1234, PAS123, NR:AB12CD, 01.02.24/10:15",
		},
		{
			name: "sepa transfer",
			code: "658",
			text: "SEPA Overboeking\nIBAN: NL02RABO0123456789\nNaam: Jane Doe\nOmschrijving: Huur februari\nKenmerk: X",
			want: "Huur februari",
		},
		{
			name: "sepa multi-line description",
			code: "944",
			text: "SEPA Incasso\nNaam: Eneco\nOmschrijving: Termijn\n 02-2024",
			want: "Termijn02-2024",
		},
		{
			name: "sepa without description",
			code: "411",
			text: "SEPA iDEAL\nNaam: Bol.com",
			want: "SEPA iDEAL",
		},
		{
			name: "savings",
			code: "526",
			text: "Spaarrekening   123\nRente",
			want: "Spaarrekening 123, Rente",
		},
		{
			name: "apple pay",
			code: "369",
			text: "eCom, Apple Pay\nAlbert Heijn\nAmsterdam",
			want: "Albert Heijn, Amsterdam",
		},
		{
			name: "atm",
			code: "445",
			text: "GEA\nAmsterdam Centraal\n01.02.24/10:15",
			want: "Amsterdam Centraal, 01.02.24/10:15",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGrabberNarration(tt.code, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseGrabberNarration_Errors(t *testing.T) {
	for _, tt := range []struct{ code, text string }{
		{"426", "BEA, Betaalpas\nShop"},
		{"999", "Something else"},
		{"999", ""},
	} {
		_, err := ParseGrabberNarration(tt.code, tt.text)
		var pe *types.ParseError
		require.True(t, errors.As(err, &pe), tt.text)
		assert.Equal(t, tt.code, pe.Code)
		assert.Equal(t, []string{tt.text}, pe.Text)
	}
}

func TestGrabberImporters(t *testing.T) {
	export := "id,date,amount,currency,payee,narration,bankTransactionCode\n" +
		"x1,2024-03-01,-850.00,EUR,Jane Doe,\"SEPA Overboeking\nNaam: Jane Doe\nOmschrijving: Huur maart\nKenmerk: 1\",658\n"

	personal := NewGrabber("Assets:NL:ABN:Gezamelijk")
	business := NewBVGrabber("Assets:BV:ABN:Checking")
	assert.Equal(t, GrabberName, personal.Name())
	assert.Equal(t, BVGrabberName, business.Name())

	txns, err := business.ParseTransactions(context.Background(), strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "-850.00", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "Jane Doe", *txns[0].Payee)
	assert.Equal(t, "Huur maart", txns[0].Narration)
	assert.Equal(t, BVGrabberName, txns[0].Bank)

	dir := t.TempDir()
	path := filepath.Join(dir, "Assets.BV.ABN.Checking.20240301-20240331.grabber.csv")
	require.NoError(t, os.WriteFile(path, []byte(export), 0o644))

	ok, err := business.Identify(path)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = personal.Identify(path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdentify_HeaderDeviation(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(good, []byte(Header+"\r\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(strings.Replace(Header, "Muntsoort", "Muntsoorr", 1)+"\r\n"), 0o644))

	imp := New("Assets:NL:ABN:Checking", "EUR")
	ok, err := imp.Identify(good)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = imp.Identify(bad)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "abn.good.csv", imp.Filename(good))
}
