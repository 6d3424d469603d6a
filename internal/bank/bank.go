package bank

import (
	"context"
	"fmt"
	"io"

	"github.com/lox/bank-statement-importer/internal/types"
)

// Bank represents an importer for one institution's export format
type Bank interface {
	// Name returns the name of the importer
	Name() string

	// Account returns the ledger account the statement belongs to
	Account() string

	// Identify reports whether the file at path is this importer's format
	Identify(path string) (bool, error)

	// ParseTransactions parses every row of an export into transactions
	ParseTransactions(ctx context.Context, r io.Reader) ([]types.Transaction, error)

	// Filename returns the name the source file is archived under
	Filename(path string) string
}

// Registry maintains the available importers in registration order
type Registry struct {
	banks map[string]Bank
	order []Bank
}

// NewRegistry creates a new bank registry
func NewRegistry() *Registry {
	return &Registry{
		banks: make(map[string]Bank),
	}
}

// Register adds an importer to the registry. Panics on duplicate names.
func (r *Registry) Register(b Bank) {
	if _, ok := r.banks[b.Name()]; ok {
		panic("duplicate bank: " + b.Name())
	}
	r.banks[b.Name()] = b
	r.order = append(r.order, b)
}

// Get returns an importer by name
func (r *Registry) Get(name string) (Bank, bool) {
	b, ok := r.banks[name]
	return b, ok
}

// List returns the registered importer names in registration order
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.order))
	for _, b := range r.order {
		names = append(names, b.Name())
	}
	return names
}

// Identify returns the first importer, in registration order, that claims the file.
// It returns nil when no importer does.
func (r *Registry) Identify(path string) (Bank, error) {
	for _, b := range r.order {
		ok, err := b.Identify(path)
		if err != nil {
			return nil, fmt.Errorf("identifying %s with %s: %w", path, b.Name(), err)
		}
		if ok {
			return b, nil
		}
	}
	return nil, nil
}
