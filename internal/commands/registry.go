package commands

import (
	"fmt"

	"github.com/lox/bank-statement-importer/internal/bank"
	"github.com/lox/bank-statement-importer/internal/bank/abn"
	"github.com/lox/bank-statement-importer/internal/bank/amex"
	"github.com/lox/bank-statement-importer/internal/bank/ing"
	"github.com/lox/bank-statement-importer/internal/bank/revolut"
	"github.com/lox/bank-statement-importer/internal/config"
	"github.com/lox/bank-statement-importer/internal/postprocess"
)

var constructors = map[string]func(config.Account) bank.Bank{
	ing.Name:              func(a config.Account) bank.Bank { return ing.New(a.Account, a.Currency) },
	ing.GrabberName:       func(a config.Account) bank.Bank { return ing.NewGrabber(a.Account) },
	abn.Name:              func(a config.Account) bank.Bank { return abn.New(a.Account, a.Currency) },
	abn.GrabberName:       func(a config.Account) bank.Bank { return abn.NewGrabber(a.Account) },
	abn.BVGrabberName:     func(a config.Account) bank.Bank { return abn.NewBVGrabber(a.Account) },
	amex.Name:             func(a config.Account) bank.Bank { return amex.New(a.Account, a.Currency) },
	revolut.Name:          func(a config.Account) bank.Bank { return revolut.New(a.Account, a.Currency) },
	revolut.GrabberName:   func(a config.Account) bank.Bank { return revolut.NewGrabber(a.Account) },
	revolut.BVGrabberName: func(a config.Account) bank.Bank { return revolut.NewBVGrabber(a.Account) },
}

// NewRegistry registers every enabled importer of cfg, in identification order
func NewRegistry(cfg *config.Config) (*bank.Registry, error) {
	registry := bank.NewRegistry()
	for _, name := range cfg.Enabled() {
		newBank, ok := constructors[name]
		if !ok {
			return nil, fmt.Errorf("no importer named %q", name)
		}
		account, ok := cfg.Importers[name]
		if !ok || account.Account == "" {
			return nil, fmt.Errorf("importer %s has no account", name)
		}
		registry.Register(newBank(account))
	}
	return registry, nil
}

// LoadRegistry reads the accounts file, if any, and builds the registry from it
func (c CommonConfig) LoadRegistry() (*bank.Registry, error) {
	registry, _, err := c.LoadImporters()
	return registry, err
}

// LoadImporters reads the accounts file, if any, and builds the registry and the
// auto-posting rules from it
func (c CommonConfig) LoadImporters() (*bank.Registry, *postprocess.AutoPoster, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, nil, err
	}
	registry, err := NewRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}
	autoPoster, err := cfg.AutoPoster()
	if err != nil {
		return nil, nil, err
	}
	return registry, autoPoster, nil
}
