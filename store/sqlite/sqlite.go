/*
Package sqlite provides a SQLite-backed implementation of ledger.TxStore.

PURPOSE:
  Persists every ledger table through database/sql and mattn/go-sqlite3.
  All reads and writes of one unit-of-work go through the same *sql.Tx,
  so a failing action rolls back completely.

INTERFACES IMPLEMENTED:
  ledger.TxStore:  units of work
  ledger.Resetter: wipe all rows (demo scenarios)
  ledger.RunStore: reconciliation run history

SCHEMA:
  Versioned goose migrations embedded from migrations/*.sql, applied by
  New. Cascades and the retailer RESTRICT rule are foreign keys, so
  _foreign_keys=on is part of every DSN.

VALUE ENCODING:
  money        TEXT, fixed 2 decimals ("12.50")
  unit costs   TEXT, fixed 4 decimals ("2.4167")
  dates        TEXT "2006-01-02" (order, sale, usage, purchase dates)
  timestamps   TEXT RFC3339Nano, UTC

ERRORS:
  UNIQUE violations          -> *ledger.DuplicateError
  FOREIGN KEY on delete      -> ledger.ErrReferenced

CONCURRENCY:
  WithTx is serialized with a mutex; SQLite has a single writer anyway.

USAGE:
  store, err := sqlite.New("./data/cards.sqlite3")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := ledger.NewService(store)

SEE ALSO:
  - ledger/store.go: interface definitions
  - ledger/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/warp/cardledger/ledger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements ledger.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

var (
	_ ledger.TxStore  = (*Store)(nil)
	_ ledger.Resetter = (*Store)(nil)
	_ ledger.RunStore = (*Store)(nil)
	_ ledger.Store    = (*tx)(nil)
)

// New opens the database at dbPath and applies pending migrations.
// Use ":memory:" for a private in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// dsn gives ":memory:" a unique shared-cache name so every pooled
// connection sees the same database.
func dsn(dbPath string) string {
	if dbPath == ":memory:" {
		return fmt.Sprintf("file:cardledger-%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	}
	return dbPath + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return 0, err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&tx{q: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// tx is the ledger.Store bound to one open transaction.
type tx struct {
	q querier
}

func (t *tx) insert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"reconciliation_runs",
		"account_transactions", "accounts",
		"sale_items", "sales",
		"inventory_movements", "inventory_items",
		"gift_card_usage", "order_items", "orders",
		"gift_cards", "retailers",
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()
	for _, table := range tables {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return sqlTx.Commit()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// writeErr maps a UNIQUE violation to a DuplicateError. values names the
// unique columns of the row being written.
func writeErr(err error, entity string, values map[string]string) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		field := uniqueColumn(se.Error())
		return &ledger.DuplicateError{Entity: entity, Field: field, Value: values[field]}
	}
	return fmt.Errorf("write %s: %w", entity, err)
}

// deleteErr maps a FOREIGN KEY violation to ErrReferenced.
func deleteErr(err error, entity string, id int64) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return fmt.Errorf("%w: %s %d is referenced by other rows", ledger.ErrReferenced, entity, id)
	}
	return fmt.Errorf("delete %s %d: %w", entity, id, err)
}

// uniqueColumn extracts "code" from "UNIQUE constraint failed: retailers.code".
func uniqueColumn(msg string) string {
	i := strings.LastIndex(msg, ".")
	if i < 0 {
		return ""
	}
	col := msg[i+1:]
	if j := strings.IndexAny(col, " ,"); j >= 0 {
		col = col[:j]
	}
	return col
}
