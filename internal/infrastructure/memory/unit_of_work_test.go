package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/application/checkout"
	domcart "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/cart"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ledger *Ledger
	orders *OrderRepository
	carts  *CartRepository
	uow    *UnitOfWork
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{ledger: NewLedger(), orders: NewOrderRepository(), carts: NewCartRepository()}
	f.uow = NewUnitOfWork(f.ledger, f.orders, f.carts)
	ctx := context.Background()
	_, _ = f.ledger.InitStock(ctx, "ring-1", 2)
	_, _ = f.ledger.InitStock(ctx, "ring-2", 1)
	_, err := f.carts.GetOrCreateActive(ctx, domcart.New("c1", "u1"))
	require.NoError(t, err)
	return f
}

func (f fixture) stock(t *testing.T, id string) int {
	t.Helper()
	n, err := f.ledger.Available(context.Background(), id)
	require.NoError(t, err)
	return n
}

func TestUnitOfWork_Commit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.uow.Do(ctx, func(ctx context.Context, tx checkout.Tx) error {
		if err := tx.Decrement(ctx, "ring-1", 2); err != nil {
			return err
		}
		if err := tx.InsertOrder(ctx, storedOrder("o1", "u1", "k1", time.Now())); err != nil {
			return err
		}
		return tx.ConvertCart(ctx, "c1")
	})
	require.NoError(t, err)

	assert.Equal(t, 0, f.stock(t, "ring-1"))
	_, err = f.orders.Get(ctx, "o1")
	require.NoError(t, err)
	_, err = f.carts.FindActive(ctx, "u1")
	assert.ErrorIs(t, err, domcart.ErrNotFound)
}

func TestUnitOfWork_RollsBackEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.uow.Do(ctx, func(ctx context.Context, tx checkout.Tx) error {
		if err := tx.Decrement(ctx, "ring-1", 2); err != nil {
			return err
		}
		if err := tx.InsertOrder(ctx, storedOrder("o1", "u1", "k1", time.Now())); err != nil {
			return err
		}
		if err := tx.ConvertCart(ctx, "c1"); err != nil {
			return err
		}
		return tx.Decrement(ctx, "ring-2", 2)
	})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	assert.Equal(t, 2, f.stock(t, "ring-1"))
	assert.Equal(t, 1, f.stock(t, "ring-2"))
	_, err = f.orders.Get(ctx, "o1")
	assert.ErrorIs(t, err, domorder.ErrNotFound)
	_, err = f.orders.FindByIdempotency(ctx, "u1", "k1")
	assert.ErrorIs(t, err, domorder.ErrNotFound)
	c, err := f.carts.FindActive(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
}

func TestUnitOfWork_RollsBackOnDeadline(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := f.uow.Do(ctx, func(ctx context.Context, tx checkout.Tx) error {
		if err := tx.Decrement(ctx, "ring-1", 1); err != nil {
			return err
		}
		cancel()
		return nil
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, f.stock(t, "ring-1"))
}
