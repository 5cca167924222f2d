// Package catalog is the canonical read model of sellable products.
// Stock is not part of it; availability is only ever read through the
// inventory ledger.
package catalog

import (
	"context"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	"github.com/shopspring/decimal"
)

var ErrNotFound = apperr.WithCode(apperr.KindNotFound, apperr.CodeProductNotFound, "catalog: product not found")

type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

type Reader interface {
	Product(ctx context.Context, id string) (Product, error)
}

// Writer upserts products. Only seeding and tests write to the catalog.
type Writer interface {
	Upsert(ctx context.Context, p Product) error
}
