package sqlstore

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	decrementSQL = "UPDATE stock_levels SET available = available - $1"
	availableSQL = "SELECT available FROM stock_levels WHERE product_id = $1"
)

func TestLedger_DecrementIsConditional(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	l := NewLedger(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).
		WithArgs(2, sqlmock.AnyArg(), "ring-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, l.Decrement(ctx, "ring-1", 2))

	mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).
		WithArgs(5, sqlmock.AnyArg(), "ring-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(availableSQL)).
		WithArgs("ring-1").
		WillReturnRows(sqlmock.NewRows([]string{"available"}).AddRow(1))
	assert.ErrorIs(t, l.Decrement(ctx, "ring-1", 5), inventory.ErrInsufficientStock)

	mock.ExpectExec(regexp.QuoteMeta(decrementSQL)).
		WithArgs(1, sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(availableSQL)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"available"}))
	assert.ErrorIs(t, l.Decrement(ctx, "ghost", 1), inventory.ErrNotFound)

	assert.ErrorIs(t, l.Decrement(ctx, "ring-1", 0), inventory.ErrInvalidQuantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_RestockUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (product_id) DO UPDATE SET available = stock_levels.available + excluded.available")).
		WithArgs("ring-1", 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewLedger(db).Restock(context.Background(), "ring-1", 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_CheckAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	l := NewLedger(db)

	mock.ExpectQuery(regexp.QuoteMeta(availableSQL)).
		WithArgs("ring-1").
		WillReturnRows(sqlmock.NewRows([]string{"available"}).AddRow(2))
	ok, err := l.CheckAvailable(context.Background(), "ring-1", 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
