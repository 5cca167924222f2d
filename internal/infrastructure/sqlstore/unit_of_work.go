package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/application/checkout"
	domorder "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/order"
)

// UnitOfWork commits a checkout in one database transaction.
type UnitOfWork struct {
	db *sql.DB
}

func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx checkout.Tx) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}

	err = fn(ctx, sqlTx{tx: tx})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w; rollback: %v", err, rbErr)
		}
		return err
	}
	return commit(ctx, tx)
}

type committer interface {
	Commit() error
}

// commit reports the context error when the deadline fired before the
// driver got the commit, since database/sql then only says ErrTxDone.
func commit(ctx context.Context, tx committer) error {
	if err := tx.Commit(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("sqlstore: commit: %w", ctxErr)
		}
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

type sqlTx struct {
	tx *sql.Tx
}

func (t sqlTx) Decrement(ctx context.Context, productID string, quantity int) error {
	return decrement(ctx, t.tx, productID, quantity)
}

func (t sqlTx) InsertOrder(ctx context.Context, o *domorder.Order) error {
	return insertOrder(ctx, t.tx, o)
}

func (t sqlTx) ConvertCart(ctx context.Context, cartID string) error {
	return convertCart(ctx, t.tx, cartID)
}
