// Package config reads the accounts file that binds importers to ledger accounts.
package config

import (
	"fmt"
	"os"
	"sort"

	"dario.cat/mergo"
	"github.com/ghodss/yaml"

	"github.com/lox/bank-statement-importer/internal/bank/abn"
	"github.com/lox/bank-statement-importer/internal/bank/amex"
	"github.com/lox/bank-statement-importer/internal/bank/ing"
	"github.com/lox/bank-statement-importer/internal/bank/revolut"
	"github.com/lox/bank-statement-importer/internal/postprocess"
)

// Account is the ledger account and currency an importer books into. Grabber
// exports carry their own currency column and ignore Currency.
type Account struct {
	Account  string `json:"account"`
	Currency string `json:"currency,omitempty"`
}

// Config is the accounts file
//
//	importers:
//	  ing:
//	    account: Assets:NL:ING:Checking
//	  revolut:
//	    currency: USD
//	disabled:
//	  - abn-bv-grabber
//	auto_postings:
//	  - name: groceries
//	    match: {on: payee, regex: "^Albert Heijn"}
//	    postings:
//	      - account: Expenses:Groceries
type Config struct {
	Importers    map[string]Account        `json:"importers"`
	Disabled     []string                  `json:"disabled,omitempty"`
	AutoPostings []postprocess.AutoPosting `json:"auto_postings,omitempty"`
}

// Order is the registration order of the importers. Identification tries them in
// this order.
var Order = []string{
	ing.Name,
	ing.GrabberName,
	abn.Name,
	abn.GrabberName,
	abn.BVGrabberName,
	amex.Name,
	revolut.Name,
	revolut.GrabberName,
	revolut.BVGrabberName,
}

// Default returns the built-in account table
func Default() *Config {
	return &Config{
		Importers: map[string]Account{
			ing.Name:              {Account: "Assets:NL:ING:Checking", Currency: "EUR"},
			ing.GrabberName:       {Account: "Assets:NL:ING:Checking", Currency: "EUR"},
			abn.Name:              {Account: "Assets:NL:ABN:Checking", Currency: "EUR"},
			abn.GrabberName:       {Account: "Assets:NL:ABN:Gezamelijk", Currency: "EUR"},
			abn.BVGrabberName:     {Account: "Assets:BV:ABN:Checking", Currency: "EUR"},
			amex.Name:             {Account: "Liabilities:NL:AMEX", Currency: "EUR"},
			revolut.Name:          {Account: "Assets:BV:Revolut", Currency: "EUR"},
			revolut.GrabberName:   {Account: "Assets:NL:Revolut", Currency: "EUR"},
			revolut.BVGrabberName: {Account: "Assets:BV:Revolut", Currency: "EUR"},
		},
	}
}

// Load reads the accounts file at path and fills every field it leaves out from
// Default. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes an accounts file and merges it over the defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	defaults := Default()
	for name := range cfg.Importers {
		if _, ok := defaults.Importers[name]; !ok {
			return nil, fmt.Errorf("unknown importer %q in config", name)
		}
	}
	for _, name := range cfg.Disabled {
		if _, ok := defaults.Importers[name]; !ok {
			return nil, fmt.Errorf("unknown importer %q in disabled list", name)
		}
	}

	if _, err := cfg.AutoPoster(); err != nil {
		return nil, err
	}

	if cfg.Importers == nil {
		cfg.Importers = make(map[string]Account, len(defaults.Importers))
	}
	for name, def := range defaults.Importers {
		acc := cfg.Importers[name]
		if err := mergo.Merge(&acc, def); err != nil {
			return nil, fmt.Errorf("merging defaults for %s: %w", name, err)
		}
		cfg.Importers[name] = acc
	}
	return &cfg, nil
}

// Enabled returns the importer names to register, in Order
func (c *Config) Enabled() []string {
	disabled := make(map[string]bool, len(c.Disabled))
	for _, name := range c.Disabled {
		disabled[name] = true
	}
	var names []string
	for _, name := range Order {
		if !disabled[name] {
			names = append(names, name)
		}
	}
	return names
}

// AutoPoster compiles the auto_postings section. Rules are tried in file order.
func (c *Config) AutoPoster() (*postprocess.AutoPoster, error) {
	return postprocess.NewAutoPoster(c.AutoPostings)
}

// Marshal renders the configuration as YAML with sorted keys
func (c *Config) Marshal() ([]byte, error) {
	disabled := append([]string(nil), c.Disabled...)
	sort.Strings(disabled)
	return yaml.Marshal(Config{Importers: c.Importers, Disabled: disabled, AutoPostings: c.AutoPostings})
}
