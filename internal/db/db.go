package db

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/shopspring/decimal"

	"github.com/lox/bank-statement-importer/internal/types"
)

const (
	// Filename of the import history inside the data directory
	Filename = "imports.db"

	dateFormat = "2006-01-02"

	storeAttempts = 5
)

// DB records which statements and transactions have been imported
type DB struct {
	db     *sql.DB
	logger *log.Logger
}

// Import is one extracted statement file
type Import struct {
	ID           int64
	Path         string
	Filename     string
	Bank         string
	Account      string
	Transactions int
	ImportedAt   time.Time
}

// New opens the import history in dataDir, creating it when needed
func New(dataDir string, logger *log.Logger) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := "file:" + filepath.Join(dataDir, Filename) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &DB{db: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS imports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL,
			filename TEXT NOT NULL,
			bank TEXT NOT NULL,
			account TEXT NOT NULL,
			transactions INTEGER NOT NULL,
			imported_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			import_id INTEGER NOT NULL REFERENCES imports(id),
			bank TEXT NOT NULL,
			date TEXT NOT NULL,
			amount TEXT NOT NULL,
			currency TEXT NOT NULL,
			payee TEXT,
			narration TEXT NOT NULL,
			source_file TEXT NOT NULL,
			imported_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// TransactionIDs returns a stable id per transaction. Identical rows within ts get
// distinct ids from their occurrence count, so a statement that books the same
// amount twice on one day keeps both.
func TransactionIDs(ts []types.Transaction) []string {
	ids := make([]string, len(ts))
	seen := make(map[string]int, len(ts))
	for i, t := range ts {
		key := fmt.Sprintf("%s|%s|%s|%s|%t|%s|%s",
			t.Bank, t.Date.Format(dateFormat), t.Amount.String(), t.Currency,
			t.Payee != nil, t.PayeeString(), t.Narration)
		n := seen[key]
		seen[key] = n + 1

		h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", key, n)))
		ids[i] = hex.EncodeToString(h[:])[:16]
	}
	return ids
}

// FilterExisting drops the transactions that are already recorded
func (d *DB) FilterExisting(ctx context.Context, ts []types.Transaction) ([]types.Transaction, error) {
	var filtered []types.Transaction
	for i, id := range TransactionIDs(ts) {
		exists, err := d.Has(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			filtered = append(filtered, ts[i])
		}
	}
	return filtered, nil
}

// Has checks if a transaction id is recorded
func (d *DB) Has(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM transactions WHERE id = ?)
	`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}
	return exists, nil
}

// StoreImport records a statement file and all of its transactions in one SQL
// transaction. Transactions that are already recorded are left alone. The stored
// import carries the number of newly recorded transactions.
func (d *DB) StoreImport(ctx context.Context, imp Import, ts []types.Transaction) (Import, error) {
	if imp.ImportedAt.IsZero() {
		imp.ImportedAt = time.Now().UTC()
	}

	err := retry.Do(
		func() error {
			stored, err := d.storeImport(ctx, imp, ts)
			if err != nil {
				return err
			}
			imp = stored
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(storeAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isBusy),
		retry.OnRetry(func(n uint, err error) {
			d.logger.Warn("Retrying import, database is busy", "attempt", n+1, "max_attempts", storeAttempts, "path", imp.Path)
		}),
	)
	if err != nil {
		return Import{}, fmt.Errorf("failed to store import of %s: %w", imp.Path, err)
	}
	return imp, nil
}

func (d *DB) storeImport(ctx context.Context, imp Import, ts []types.Transaction) (Import, error) {
	start := time.Now()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return Import{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO imports (path, filename, bank, account, transactions, imported_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, imp.Path, imp.Filename, imp.Bank, imp.Account, imp.ImportedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Import{}, err
	}
	imp.ID, err = res.LastInsertId()
	if err != nil {
		return Import{}, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, import_id, bank, date, amount, currency, payee, narration, source_file, imported_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Import{}, err
	}
	defer stmt.Close()

	imp.Transactions = 0
	for i, id := range TransactionIDs(ts) {
		t := ts[i]
		var payee sql.NullString
		if t.Payee != nil {
			payee = sql.NullString{String: *t.Payee, Valid: true}
		}
		res, err := stmt.ExecContext(ctx,
			id, imp.ID, t.Bank, t.Date.Format(dateFormat), t.Amount.String(), t.Currency,
			payee, t.Narration, imp.Filename, imp.ImportedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return Import{}, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return Import{}, err
		}
		imp.Transactions += int(n)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE imports SET transactions = ? WHERE id = ?`, imp.Transactions, imp.ID); err != nil {
		return Import{}, err
	}
	if err := tx.Commit(); err != nil {
		return Import{}, err
	}

	d.logger.Debug("Stored import",
		"id", imp.ID,
		"path", imp.Path,
		"new", imp.Transactions,
		"total", len(ts),
		"duration", time.Since(start))
	return imp, nil
}

// ListImports returns the most recent imports first. A limit of zero or less
// returns all of them.
func (d *DB) ListImports(ctx context.Context, limit int) ([]Import, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, path, filename, bank, account, transactions, imported_at
		FROM imports
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer rows.Close()

	var imports []Import
	for rows.Next() {
		var (
			imp        Import
			importedAt string
		)
		if err := rows.Scan(&imp.ID, &imp.Path, &imp.Filename, &imp.Bank, &imp.Account, &imp.Transactions, &importedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		if imp.ImportedAt, err = time.Parse(time.RFC3339Nano, importedAt); err != nil {
			return nil, fmt.Errorf("invalid import time %q: %w", importedAt, err)
		}
		imports = append(imports, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating imports: %w", err)
	}
	return imports, nil
}

// Transactions returns the recorded transactions of an import in statement order
func (d *DB) Transactions(ctx context.Context, importID int64) ([]types.Transaction, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT bank, date, amount, currency, payee, narration
		FROM transactions
		WHERE import_id = ?
		ORDER BY rowid
	`, importID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var ts []types.Transaction
	for rows.Next() {
		var (
			t      types.Transaction
			date   string
			amount decimal.Decimal
			payee  sql.NullString
		)
		if err := rows.Scan(&t.Bank, &date, &amount, &t.Currency, &payee, &t.Narration); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if t.Date, err = time.Parse(dateFormat, date); err != nil {
			return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
		}
		t.Amount = amount
		if payee.Valid {
			t.Payee = types.StringPtr(payee.String)
		}
		ts = append(ts, t)
	}
	return ts, rows.Err()
}

// Count returns the number of recorded transactions
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func isBusy(err error) bool {
	return errors.Is(err, sqlite3.BUSY) || errors.Is(err, sqlite3.LOCKED)
}
