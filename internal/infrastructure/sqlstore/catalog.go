package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/catalog"
)

type Catalog struct {
	db *sql.DB
}

func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) Product(ctx context.Context, id string) (catalog.Product, error) {
	var p catalog.Product
	err := c.db.QueryRowContext(ctx,
		"SELECT id, name, price FROM products WHERE id = $1", id,
	).Scan(&p.ID, &p.Name, &p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("sqlstore: get product: %w", err)
	}
	return p, nil
}

func (c *Catalog) Upsert(ctx context.Context, p catalog.Product) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Price.String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlstore: upsert product: %w", err)
	}
	return nil
}
