package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/order"
)

// OrderRepository stores orders in orders/order_items. Address and payment
// descriptors are kept as JSON documents.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = "id, user_id, user_email, cart_id, idempotency_key, status, subtotal, tax, shipping, total, shipping_address, payment, created_at, updated_at"

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	return execTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertOrder(ctx, tx, o)
	})
}

func insertOrder(ctx context.Context, q querier, o *domain.Order) error {
	addr, err := json.Marshal(o.Shipping)
	if err != nil {
		return fmt.Errorf("sqlstore: encode shipping address: %w", err)
	}
	pay, err := json.Marshal(o.Payment)
	if err != nil {
		return fmt.Errorf("sqlstore: encode payment: %w", err)
	}

	_, err = q.ExecContext(ctx,
		"INSERT INTO orders ("+orderColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)",
		o.ID, o.UserID, o.UserEmail, o.CartID, o.IdempotencyKey, string(o.Status),
		o.Totals.Subtotal.StringFixed(2), o.Totals.Tax.StringFixed(2), o.Totals.Shipping.StringFixed(2), o.Totals.Total.StringFixed(2),
		string(addr), string(pay), o.CreatedAt, o.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("sqlstore: insert order: %w", err)
	}

	for i, it := range o.Items {
		_, err := q.ExecContext(ctx,
			"INSERT INTO order_items (order_id, position, product_id, name, unit_price, quantity, line_total) VALUES ($1, $2, $3, $4, $5, $6, $7)",
			o.ID, i, it.ProductID, it.Name, it.UnitPrice.String(), it.Quantity, it.LineTotal.StringFixed(2))
		if err != nil {
			return fmt.Errorf("sqlstore: insert order item %d: %w", i, err)
		}
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	return r.one(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
}

func (r *OrderRepository) FindByIdempotency(ctx context.Context, userID, key string) (*domain.Order, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	return r.one(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = $1 AND idempotency_key = $2", userID, key)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.many(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC", userID)
}

func (r *OrderRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = domain.DefaultListLimit
	}
	return r.many(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC, id DESC LIMIT $2",
		string(filter.Status), limit)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4",
		string(to), at, id, string(from))
	if err != nil {
		return fmt.Errorf("sqlstore: update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: update order status: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("sqlstore: status of %s changed concurrently: %w", id, domain.ErrConflict)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *OrderRepository) one(ctx context.Context, query string, args ...any) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) many(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list orders: %w", err)
	}
	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("sqlstore: list orders: %w", err)
	}
	// Close before loading items: SQLite runs on a single connection.
	_ = rows.Close()

	for _, o := range out {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanOrder(s rowScanner) (*domain.Order, error) {
	var (
		o         domain.Order
		status    string
		addr, pay string
		created   time.Time
		updated   time.Time
	)
	err := s.Scan(&o.ID, &o.UserID, &o.UserEmail, &o.CartID, &o.IdempotencyKey, &status,
		&o.Totals.Subtotal, &o.Totals.Tax, &o.Totals.Shipping, &o.Totals.Total,
		&addr, &pay, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlstore: scan order: %w", err)
	}
	if err := json.Unmarshal([]byte(addr), &o.Shipping); err != nil {
		return nil, fmt.Errorf("sqlstore: decode shipping address: %w", err)
	}
	if err := json.Unmarshal([]byte(pay), &o.Payment); err != nil {
		return nil, fmt.Errorf("sqlstore: decode payment: %w", err)
	}
	o.Status = domain.Status(status)
	o.CreatedAt, o.UpdatedAt = created.UTC(), updated.UTC()
	return &o, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT product_id, name, unit_price, quantity, line_total FROM order_items WHERE order_id = $1 ORDER BY position", o.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.LineItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.UnitPrice, &it.Quantity, &it.LineTotal); err != nil {
			return fmt.Errorf("sqlstore: scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlstore: list order items: %w", err)
	}
	return nil
}
