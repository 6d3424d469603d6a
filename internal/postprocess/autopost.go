package postprocess

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/lox/bank-statement-importer/internal/types"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Matcher selects transactions. A leaf matcher tests Regex against the field named by
// On (date, payee, narration or amount). A composite matcher sets exactly one of Any,
// All or None.
type Matcher struct {
	On    string    `json:"on,omitempty"`
	Regex string    `json:"regex,omitempty"`
	Any   []Matcher `json:"any,omitempty"`
	All   []Matcher `json:"all,omitempty"`
	None  []Matcher `json:"none,omitempty"`
}

// PostingTemplate is a ledger line added to matched transactions. Line is a
// text/template executed with the transaction, e.g. "{{.Amount.Neg}} {{.Currency}}".
type PostingTemplate struct {
	Flag    string `json:"flag,omitempty"`
	Account string `json:"account"`
	Line    string `json:"line,omitempty"`
}

// AutoPosting appends Postings to the transactions Match selects. A selected
// transaction outside the expected amount range, currency or accounts fails the file.
// Unset expectations accept anything.
//
//	auto_postings:
//	  - name: rent
//	    match:
//	      all:
//	        - {on: payee, regex: "^Jane Doe$"}
//	        - {on: narration, regex: "(?i)huur"}
//	    amount_min: -900
//	    amount_max: -800
//	    currency: EUR
//	    accounts: [Assets:NL:ABN:Gezamelijk]
//	    postings:
//	      - account: Expenses:Housing:Rent
//	        line: "{{.Amount.Neg}} {{.Currency}}"
type AutoPosting struct {
	Name      string            `json:"name"`
	Match     Matcher           `json:"match"`
	AmountMin *decimal.Decimal  `json:"amount_min,omitempty"`
	AmountMax *decimal.Decimal  `json:"amount_max,omitempty"`
	Currency  string            `json:"currency,omitempty"`
	Accounts  []string          `json:"accounts,omitempty"`
	Postings  []PostingTemplate `json:"postings"`
}

// PostingData is what posting line templates are executed with
type PostingData struct {
	Date      time.Time
	Amount    decimal.Decimal
	Currency  string
	Payee     string
	Narration string
	Account   string
}

var matchFields = map[string]func(types.Transaction) string{
	"date":      func(t types.Transaction) string { return t.Date.Format("2006-01-02") },
	"payee":     types.Transaction.PayeeString,
	"narration": func(t types.Transaction) string { return t.Narration },
	"amount":    func(t types.Transaction) string { return t.Amount.String() },
}

type predicate func(types.Transaction) bool

type compiledPosting struct {
	flag    string
	account string
	line    *template.Template
}

type rule struct {
	AutoPosting
	match    predicate
	postings []compiledPosting
}

// AutoPoster applies an ordered list of auto-postings. The first rule whose matcher
// selects a transaction wins. A nil AutoPoster leaves transactions untouched.
type AutoPoster struct {
	rules []rule
}

// NewAutoPoster compiles the matchers and posting templates of every rule
func NewAutoPoster(autoPostings []AutoPosting) (*AutoPoster, error) {
	a := &AutoPoster{}
	seen := make(map[string]bool, len(autoPostings))
	for _, ap := range autoPostings {
		if ap.Name == "" {
			return nil, errors.New("auto-posting without name")
		}
		if seen[ap.Name] {
			return nil, fmt.Errorf("duplicate auto-posting %q", ap.Name)
		}
		seen[ap.Name] = true

		r, err := compileRule(ap)
		if err != nil {
			return nil, fmt.Errorf("auto-posting %q: %w", ap.Name, err)
		}
		a.rules = append(a.rules, r)
	}
	return a, nil
}

func compileRule(ap AutoPosting) (rule, error) {
	if ap.AmountMin != nil && ap.AmountMax != nil && ap.AmountMin.GreaterThan(*ap.AmountMax) {
		return rule{}, fmt.Errorf("amount_min %s is above amount_max %s", ap.AmountMin, ap.AmountMax)
	}
	if len(ap.Postings) == 0 {
		return rule{}, errors.New("no postings")
	}

	match, err := compileMatcher(ap.Match)
	if err != nil {
		return rule{}, err
	}

	r := rule{AutoPosting: ap, match: match}
	for i, p := range ap.Postings {
		if p.Account == "" {
			return rule{}, fmt.Errorf("posting %d: account is required", i+1)
		}
		tmpl, err := template.New(ap.Name).Option("missingkey=error").Parse(p.Line)
		if err != nil {
			return rule{}, fmt.Errorf("posting %d: %w", i+1, err)
		}
		r.postings = append(r.postings, compiledPosting{flag: p.Flag, account: p.Account, line: tmpl})
	}
	return r, nil
}

func compileMatcher(m Matcher) (predicate, error) {
	leaf := m.On != "" || m.Regex != ""
	kinds := 0
	for _, set := range []bool{leaf, m.Any != nil, m.All != nil, m.None != nil} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return nil, errors.New("matcher must set exactly one of regex, any, all or none")
	}

	if leaf {
		field, ok := matchFields[m.On]
		if !ok {
			return nil, fmt.Errorf("cannot match on %q", m.On)
		}
		if m.Regex == "" {
			return nil, fmt.Errorf("matcher on %s has no regex", m.On)
		}
		re, err := regexp.Compile(m.Regex)
		if err != nil {
			return nil, err
		}
		return func(t types.Transaction) bool { return re.MatchString(field(t)) }, nil
	}

	var children []Matcher
	switch {
	case m.Any != nil:
		children = m.Any
	case m.All != nil:
		children = m.All
	default:
		children = m.None
	}
	preds := make([]predicate, len(children))
	for i, child := range children {
		p, err := compileMatcher(child)
		if err != nil {
			return nil, err
		}
		preds[i] = p
	}

	switch {
	case m.Any != nil:
		return func(t types.Transaction) bool {
			return slices.ContainsFunc(preds, func(p predicate) bool { return p(t) })
		}, nil
	case m.All != nil:
		return func(t types.Transaction) bool {
			return !slices.ContainsFunc(preds, func(p predicate) bool { return !p(t) })
		}, nil
	default:
		return func(t types.Transaction) bool {
			return !slices.ContainsFunc(preds, func(p predicate) bool { return p(t) })
		}, nil
	}
}

// Match returns the name of the first rule that selects t, or "" when none does
func (a *AutoPoster) Match(t types.Transaction) string {
	if r := a.find(t); r != nil {
		return r.Name
	}
	return ""
}

func (a *AutoPoster) find(t types.Transaction) *rule {
	if a == nil {
		return nil
	}
	for i := range a.rules {
		if a.rules[i].match(t) {
			return &a.rules[i]
		}
	}
	return nil
}

// Apply returns copies of ts with the postings of the matching rule appended. account
// is the ledger account of the importer that produced ts.
func (a *AutoPoster) Apply(account string, ts []types.Transaction) ([]types.Transaction, error) {
	out := make([]types.Transaction, len(ts))
	for i, t := range ts {
		r := a.find(t)
		if r == nil {
			out[i] = t
			continue
		}
		postings, err := r.apply(account, t)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", t.Date.Format("2006-01-02"), t.Narration, err)
		}
		t.Postings = append(slices.Clip(t.Postings), postings...)
		out[i] = t
	}
	return out, nil
}

func (r *rule) apply(account string, t types.Transaction) ([]types.Posting, error) {
	if err := r.validate(account, t); err != nil {
		return nil, fmt.Errorf("auto-posting %q: %w", r.Name, err)
	}

	data := PostingData{
		Date:      t.Date,
		Amount:    t.Amount,
		Currency:  t.Currency,
		Payee:     t.PayeeString(),
		Narration: t.Narration,
		Account:   account,
	}
	postings := make([]types.Posting, 0, len(r.postings))
	for _, p := range r.postings {
		var buf bytes.Buffer
		if err := p.line.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("auto-posting %q: rendering line for %s: %w", r.Name, p.account, err)
		}
		postings = append(postings, types.Posting{
			Flag:    p.flag,
			Account: p.account,
			Line:    strings.TrimSpace(buf.String()),
		})
	}
	return postings, nil
}

func (r *rule) validate(account string, t types.Transaction) error {
	if r.AmountMax != nil && t.Amount.GreaterThan(*r.AmountMax) {
		return fmt.Errorf("amount %s is above the expected maximum %s", t.Amount, r.AmountMax)
	}
	if r.AmountMin != nil && t.Amount.LessThan(*r.AmountMin) {
		return fmt.Errorf("amount %s is below the expected minimum %s", t.Amount, r.AmountMin)
	}
	if r.Currency != "" && r.Currency != t.Currency {
		return fmt.Errorf("unexpected currency %s (want %s)", t.Currency, r.Currency)
	}
	if len(r.Accounts) > 0 && !slices.Contains(r.Accounts, account) {
		return fmt.Errorf("unexpected account %s", account)
	}
	return nil
}
