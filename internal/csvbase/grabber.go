package csvbase

import (
	"github.com/lox/bank-statement-importer/internal/amount"
)

// GrabberHeader lists the columns written by the csv-grabber tool
var GrabberHeader = []string{"id", "date", "amount", "currency", "payee", "narration", "bankTransactionCode"}

// GrabberMapping binds the grabber columns. Date, amount, currency and payee are
// already normalized; rule cleans up the narration given the bank transaction code.
func GrabberMapping(rule func(code, narration string) (string, error)) Mapping {
	return Mapping{
		Date:     Date("date", "2006-01-02"),
		Amount:   Amount("amount", amount.ParsePlain),
		Currency: Text("currency"),
		Description: PayeeAndNarration("payee", func(v ...string) (string, error) {
			return rule(v[0], v[1])
		}, "bankTransactionCode", "narration"),
	}
}
