package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// CartRepository stores carts in carts/cart_items. A partial unique index
// keeps at most one active cart per user.
type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

const cartColumns = "id, user_id, status, created_at, updated_at"

func (r *CartRepository) GetOrCreateActive(ctx context.Context, candidate *domain.Cart) (*domain.Cart, error) {
	existing, err := r.FindActive(ctx, candidate.UserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	_, createErr := r.db.ExecContext(ctx,
		"INSERT INTO carts ("+cartColumns+") VALUES ($1, $2, $3, $4, $5)",
		candidate.ID, candidate.UserID, string(domain.StatusActive), candidate.CreatedAt, candidate.UpdatedAt)
	if createErr == nil {
		return candidate.Clone(), nil
	}
	if isUniqueViolation(createErr) {
		// Lost the race to a concurrent creator; theirs is the active cart.
		return r.FindActive(ctx, candidate.UserID)
	}
	return nil, fmt.Errorf("sqlstore: create cart: %w", createErr)
}

func (r *CartRepository) FindActive(ctx context.Context, userID string) (*domain.Cart, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+cartColumns+" FROM carts WHERE user_id = $1 AND status = $2",
		userID, string(domain.StatusActive))
	return r.load(ctx, row)
}

func (r *CartRepository) Get(ctx context.Context, id string) (*domain.Cart, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+cartColumns+" FROM carts WHERE id = $1", id)
	return r.load(ctx, row)
}

func (r *CartRepository) load(ctx context.Context, row *sql.Row) (*domain.Cart, error) {
	var (
		id, userID, status   string
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&id, &userID, &status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get cart: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, product_id, quantity, unit_price FROM cart_items WHERE cart_id = $1 ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var (
			it    domain.Item
			price decimal.Decimal
		)
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Quantity, &price); err != nil {
			return nil, fmt.Errorf("sqlstore: scan cart item: %w", err)
		}
		it.UnitPrice = price
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: list cart items: %w", err)
	}
	return domain.Restore(id, userID, domain.Status(status), items, createdAt.UTC(), updatedAt.UTC()), nil
}

// Save replaces the whole item set of an active cart.
func (r *CartRepository) Save(ctx context.Context, c *domain.Cart) error {
	if !c.IsActive() {
		return domain.ErrNotActive
	}
	return execTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE carts SET updated_at = $1 WHERE id = $2 AND status = $3",
			c.UpdatedAt, c.ID, string(domain.StatusActive))
		if err != nil {
			return fmt.Errorf("sqlstore: touch cart: %w", err)
		}
		if err := expectOneRow(ctx, tx, res, c.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", c.ID); err != nil {
			return fmt.Errorf("sqlstore: clear cart items: %w", err)
		}
		for i, it := range c.Items {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO cart_items (id, cart_id, position, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4, $5, $6)",
				it.ID, c.ID, i, it.ProductID, it.Quantity, it.UnitPrice.String()); err != nil {
				return fmt.Errorf("sqlstore: insert cart item %d: %w", i, err)
			}
		}
		return nil
	})
}

func convertCart(ctx context.Context, q querier, id string) error {
	res, err := q.ExecContext(ctx,
		"UPDATE carts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4",
		string(domain.StatusConverted), time.Now().UTC(), id, string(domain.StatusActive))
	if err != nil {
		return fmt.Errorf("sqlstore: convert cart: %w", err)
	}
	return expectOneRow(ctx, q, res, id)
}

// expectOneRow maps a conditional cart update that matched nothing to
// ErrNotFound or ErrNotActive.
func expectOneRow(ctx context.Context, q querier, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: cart rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	var status string
	err = q.QueryRowContext(ctx, "SELECT status FROM carts WHERE id = $1", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("sqlstore: read cart status: %w", err)
	}
	return domain.ErrNotActive
}
