package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/inventory"
)

// Ledger keeps stock in stock_levels. Decrement is a single conditional
// UPDATE, so the database arbitrates concurrent buyers.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Available(ctx context.Context, productID string) (int, error) {
	return available(ctx, l.db, productID)
}

func (l *Ledger) CheckAvailable(ctx context.Context, productID string, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, domain.ErrInvalidQuantity
	}
	n, err := available(ctx, l.db, productID)
	if err != nil {
		return false, err
	}
	return quantity <= n, nil
}

func (l *Ledger) Decrement(ctx context.Context, productID string, quantity int) error {
	return decrement(ctx, l.db, productID, quantity)
}

func (l *Ledger) Restock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO stock_levels (product_id, available, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id) DO UPDATE SET
			available = stock_levels.available + excluded.available,
			updated_at = excluded.updated_at`,
		productID, quantity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlstore: restock: %w", err)
	}
	return nil
}

// InitStock creates the entry with available units unless one already exists.
func (l *Ledger) InitStock(ctx context.Context, productID string, quantity int) (bool, error) {
	if quantity < 0 {
		return false, domain.ErrInvalidQuantity
	}
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO stock_levels (product_id, available, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id) DO NOTHING`,
		productID, quantity, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("sqlstore: init stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlstore: init stock: %w", err)
	}
	return n == 1, nil
}

func available(ctx context.Context, q querier, productID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT available FROM stock_levels WHERE product_id = $1", productID,
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("sqlstore: read stock: %w", err)
	}
	return n, nil
}

func decrement(ctx context.Context, q querier, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	res, err := q.ExecContext(ctx, `
		UPDATE stock_levels SET available = available - $1, updated_at = $2
		WHERE product_id = $3 AND available >= $1`,
		quantity, time.Now().UTC(), productID)
	if err != nil {
		return fmt.Errorf("sqlstore: decrement stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: decrement stock: %w", err)
	}
	if n == 1 {
		return nil
	}
	// Nothing updated: either the product is unknown or stock is short.
	if _, err := available(ctx, q, productID); err != nil {
		return err
	}
	return domain.ErrInsufficientStock
}
