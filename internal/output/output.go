// Package output renders extraction results.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lox/bank-statement-importer/internal/extractor"
	"github.com/lox/bank-statement-importer/internal/types"
	"github.com/shopspring/decimal"
)

// WriteBeancount writes every result as Beancount transactions, one block per file
func WriteBeancount(w io.Writer, results []extractor.Result) error {
	bw := bufio.NewWriter(w)
	for i, r := range results {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "; %s\n", r.Filename)
		for _, t := range r.Transactions {
			bw.WriteString("\n")
			writeTransaction(bw, r.Account, t)
		}
	}
	return bw.Flush()
}

func writeTransaction(w io.Writer, account string, t types.Transaction) {
	fmt.Fprintf(w, "%s *", t.Date.Format("2006-01-02"))
	if t.Payee != nil {
		fmt.Fprintf(w, " %s", quote(*t.Payee))
	}
	fmt.Fprintf(w, " %s\n", quote(t.Narration))
	fmt.Fprintf(w, "  %s  %s %s\n", account, formatAmount(t.Amount), t.Currency)
	for _, p := range t.Postings {
		posting := p.Account
		if p.Flag != "" {
			posting = p.Flag + " " + posting
		}
		if p.Line != "" {
			posting += "  " + p.Line
		}
		fmt.Fprintf(w, "  %s\n", posting)
	}
}

// formatAmount prints at least two decimals and never rounds
func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(max(2, -d.Exponent()))
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// WriteJSON writes the results as an indented JSON array
func WriteJSON(w io.Writer, results []extractor.Result) error {
	if results == nil {
		results = []extractor.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
