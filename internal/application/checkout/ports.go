package checkout

import (
	"context"

	domorder "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/order"
)

type IDGenerator interface {
	NewID() string
}

// Tx is the set of writes that commit an order. Either all of them take
// effect or none do.
type Tx interface {
	// Decrement is the ledger's atomic check-and-decrement.
	Decrement(ctx context.Context, productID string, quantity int) error
	InsertOrder(ctx context.Context, o *domorder.Order) error
	// ConvertCart retires the cart, failing with cart.ErrNotActive if it
	// is no longer active.
	ConvertCart(ctx context.Context, cartID string) error
}

// UnitOfWork runs fn atomically. If fn returns an error, or ctx ends before
// fn returns, every write made through tx is undone.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
