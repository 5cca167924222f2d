// Package sqlstore persists the checkout core in a SQL database. The same
// statements run on PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite):
// numbered placeholders, decimals as TEXT, upserts via ON CONFLICT.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects and pings. For SQLite the parent directory is created and
// the pool is pinned to a single connection, which serialises writers.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil {
				return nil, fmt.Errorf("sqlstore: create data dir: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", driver, err)
	}
	return db, nil
}

// Store bundles the adapters sharing one database handle.
type Store struct {
	DB         *sql.DB
	Catalog    *Catalog
	Ledger     *Ledger
	Carts      *CartRepository
	Orders     *OrderRepository
	UnitOfWork *UnitOfWork
}

func New(db *sql.DB) *Store {
	return &Store{
		DB:         db,
		Catalog:    NewCatalog(db),
		Ledger:     NewLedger(db),
		Carts:      NewCartRepository(db),
		Orders:     NewOrderRepository(db),
		UnitOfWork: NewUnitOfWork(db),
	}
}

func execTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w; rollback: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

const pgUniqueViolation pq.ErrorCode = "23505"

// isUniqueViolation reports a unique or primary key violation from either
// driver. modernc reports extended result codes.
func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
