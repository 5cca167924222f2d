package inventory

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
)

var (
	ErrNotFound          = apperr.WithCode(apperr.KindNotFound, apperr.CodeStockNotFound, "inventory: product not found")
	ErrInvalidQuantity   = apperr.WithCode(apperr.KindValidation, apperr.CodeInvalidQuantity, "inventory: quantity must be greater than zero")
	ErrInsufficientStock = apperr.New(apperr.KindInsufficientStock, "inventory: insufficient stock")
)

// Item is one ledger entry.
type Item struct {
	ProductID string
	Available int
	UpdatedAt time.Time
}

func NewItem(productID string, available int) (*Item, error) {
	if available < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Item{
		ProductID: productID,
		Available: available,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (i *Item) Covers(quantity int) bool {
	return quantity <= i.Available
}

// Deduct removes quantity units. The entry never goes negative.
func (i *Item) Deduct(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > i.Available {
		return ErrInsufficientStock
	}
	i.Available -= quantity
	i.touch()
	return nil
}

func (i *Item) Add(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	i.Available += quantity
	i.touch()
	return nil
}

func (i *Item) touch() {
	i.UpdatedAt = time.Now().UTC()
}

// Ledger is the authoritative per-product stock count.
//
// Decrement must be a single atomic check-and-decrement: concurrent callers
// never drive a count negative and never lose an update.
type Ledger interface {
	Available(ctx context.Context, productID string) (int, error)
	CheckAvailable(ctx context.Context, productID string, quantity int) (bool, error)
	Decrement(ctx context.Context, productID string, quantity int) error
	// Restock adds quantity, creating the entry when it does not exist.
	Restock(ctx context.Context, productID string, quantity int) error
}
