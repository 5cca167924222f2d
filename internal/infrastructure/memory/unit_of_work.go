package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/application/checkout"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/order"
)

// UnitOfWork commits checkouts against the in-memory stores. There is no
// shared transaction, so every applied write records a compensation that
// runs, newest first, when the unit aborts. The ledger may be any
// implementation; compensation uses its Restock.
type UnitOfWork struct {
	ledger inventory.Ledger
	orders *OrderRepository
	carts  *CartRepository
}

func NewUnitOfWork(ledger inventory.Ledger, orders *OrderRepository, carts *CartRepository) *UnitOfWork {
	return &UnitOfWork{ledger: ledger, orders: orders, carts: carts}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx checkout.Tx) error) error {
	tx := &journalTx{uow: u}
	err := fn(ctx, tx)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		return nil
	}
	if rbErr := tx.rollback(); rbErr != nil {
		return fmt.Errorf("%w; rollback: %v", err, rbErr)
	}
	return err
}

type journalTx struct {
	uow  *UnitOfWork
	mu   sync.Mutex
	undo []func(context.Context) error
}

func (t *journalTx) record(f func(context.Context) error) {
	t.mu.Lock()
	t.undo = append(t.undo, f)
	t.mu.Unlock()
}

func (t *journalTx) Decrement(ctx context.Context, productID string, quantity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.uow.ledger.Decrement(ctx, productID, quantity); err != nil {
		return err
	}
	t.record(func(ctx context.Context) error {
		return t.uow.ledger.Restock(ctx, productID, quantity)
	})
	return nil
}

func (t *journalTx) InsertOrder(ctx context.Context, o *domorder.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.uow.orders.Insert(ctx, o); err != nil {
		return err
	}
	id := o.ID
	t.record(func(context.Context) error {
		t.uow.orders.delete(id)
		return nil
	})
	return nil
}

func (t *journalTx) ConvertCart(ctx context.Context, cartID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.uow.carts.convert(cartID); err != nil {
		return err
	}
	t.record(func(context.Context) error {
		return t.uow.carts.reactivate(cartID)
	})
	return nil
}

// rollback runs compensations on a context detached from the caller's
// deadline, since the deadline is often what triggered the rollback.
func (t *journalTx) rollback() error {
	t.mu.Lock()
	undo := t.undo
	t.undo = nil
	t.mu.Unlock()

	ctx := context.Background()
	var errs []error
	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
