// Package extractor runs statement files through the importer registry and records
// the results in the import history.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/bank-statement-importer/internal/bank"
	"github.com/lox/bank-statement-importer/internal/db"
	"github.com/lox/bank-statement-importer/internal/postprocess"
	"github.com/lox/bank-statement-importer/internal/types"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Concurrency  int
	Progress     bool
	DryRun       bool
	SkipExisting bool
}

// Result is the outcome of extracting one statement file
type Result struct {
	Path         string              `json:"path"`
	Bank         string              `json:"bank"`
	Account      string              `json:"account"`
	Filename     string              `json:"filename"`
	Transactions []types.Transaction `json:"transactions"`
	Skipped      int                 `json:"skipped"`
}

type Extractor struct {
	registry   *bank.Registry
	db         *db.DB
	autoPoster *postprocess.AutoPoster
	logger     *log.Logger
}

// New creates an extractor. The database may be nil, in which case nothing is
// recorded and existing transactions are never skipped.
func New(registry *bank.Registry, database *db.DB, logger *log.Logger) *Extractor {
	return &Extractor{
		registry: registry,
		db:       database,
		logger:   logger,
	}
}

// WithAutoPoster makes the extractor add the postings of matching auto-posting rules
// to every extracted transaction
func (e *Extractor) WithAutoPoster(ap *postprocess.AutoPoster) *Extractor {
	e.autoPoster = ap
	return e
}

// Identify returns the importer that claims path, or nil
func (e *Extractor) Identify(path string) (bank.Bank, error) {
	return e.registry.Identify(path)
}

// Extract parses every identified file in paths. Results keep the order of paths;
// files no importer claims are left out. The first failing file aborts the batch.
func (e *Extractor) Extract(ctx context.Context, paths []string, config Config) ([]Result, error) {
	startTime := time.Now()
	e.logger.Info("Starting extraction", "files", len(paths))

	progress := newProgress(config.Progress, len(paths))
	defer progress.Close()

	results := make([]*Result, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	if config.Concurrency > 0 {
		g.SetLimit(config.Concurrency)
	}

	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			fileStart := time.Now()
			result, err := e.extractFile(gCtx, path, config)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				e.logger.Error("Failed to extract file", "path", path, "error", err)
				return err
			}
			if result != nil {
				e.logger.Debug("Extracted file",
					"path", path,
					"bank", result.Bank,
					"transactions", len(result.Transactions),
					"skipped", result.Skipped,
					"duration", time.Since(fileStart))
			}
			results[i] = result

			return progress.Done(result)
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			e.logger.Info("Extraction interrupted")
		}
		return nil, err
	}

	extracted := make([]Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			extracted = append(extracted, *r)
		}
	}

	e.logger.Info("Finished extraction",
		"total_duration", time.Since(startTime),
		"files", len(extracted),
		"unidentified", len(paths)-len(extracted))

	return extracted, nil
}

func (e *Extractor) extractFile(ctx context.Context, path string, config Config) (*Result, error) {
	b, err := e.registry.Identify(path)
	if err != nil {
		return nil, err
	}
	if b == nil {
		e.logger.Warn("No importer identified file", "path", path)
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	transactions, err := b.ParseTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	transactions = postprocess.CleanUpAll(transactions)
	transactions, err = e.autoPoster.Apply(b.Account(), transactions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	result := &Result{
		Path:         path,
		Bank:         b.Name(),
		Account:      b.Account(),
		Filename:     b.Filename(path),
		Transactions: transactions,
	}

	if e.db == nil {
		return result, nil
	}

	if config.SkipExisting {
		fresh, err := e.db.FilterExisting(ctx, transactions)
		if err != nil {
			return nil, fmt.Errorf("error filtering existing transactions: %w", err)
		}
		result.Skipped = len(transactions) - len(fresh)
		result.Transactions = fresh
	}

	if !config.DryRun {
		// the whole statement is stored so ids stay stable across partial overlaps
		if _, err := e.db.StoreImport(ctx, db.Import{
			Path:     path,
			Filename: result.Filename,
			Bank:     result.Bank,
			Account:  result.Account,
		}, transactions); err != nil {
			return nil, err
		}
	}

	return result, nil
}
