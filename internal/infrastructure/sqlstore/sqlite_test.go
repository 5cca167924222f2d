package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/application/checkout"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/cart"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/catalog"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/order"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(ctx, db))
	// Migrations are idempotent.
	require.NoError(t, Migrate(ctx, db))
	return New(db)
}

func TestSQLite_CatalogAndLedger(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Catalog.Upsert(ctx, catalog.Product{ID: "ring-1", Name: "Ring", Price: decimal.RequireFromString("249.99")}))
	require.NoError(t, s.Catalog.Upsert(ctx, catalog.Product{ID: "ring-1", Name: "Gold Ring", Price: decimal.RequireFromString("259.99")}))
	p, err := s.Catalog.Product(ctx, "ring-1")
	require.NoError(t, err)
	assert.Equal(t, "Gold Ring", p.Name)
	assert.Equal(t, "259.99", p.Price.StringFixed(2))
	_, err = s.Catalog.Product(ctx, "ghost")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	created, err := s.Ledger.InitStock(ctx, "ring-1", 2)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.Ledger.InitStock(ctx, "ring-1", 9)
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, s.Ledger.Decrement(ctx, "ring-1", 2))
	assert.ErrorIs(t, s.Ledger.Decrement(ctx, "ring-1", 1), inventory.ErrInsufficientStock)
	assert.ErrorIs(t, s.Ledger.Decrement(ctx, "ghost", 1), inventory.ErrNotFound)

	require.NoError(t, s.Ledger.Restock(ctx, "ring-1", 4))
	require.NoError(t, s.Ledger.Restock(ctx, "ring-2", 1))
	n, err := s.Ledger.Available(ctx, "ring-1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	n, _ = s.Ledger.Available(ctx, "ring-2")
	assert.Equal(t, 1, n)
}

func TestSQLite_CartLifecycle(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	c, err := s.Carts.GetOrCreateActive(ctx, cart.New("c1", "u1"))
	require.NoError(t, err)
	again, err := s.Carts.GetOrCreateActive(ctx, cart.New("c2", "u1"))
	require.NoError(t, err)
	assert.Equal(t, "c1", again.ID)

	_, err = c.AddItem("i1", "ring-1", 2, decimal.RequireFromString("10.50"))
	require.NoError(t, err)
	_, err = c.AddItem("i2", "ring-2", 1, decimal.RequireFromString("0.99"))
	require.NoError(t, err)
	require.NoError(t, s.Carts.Save(ctx, c))

	got, err := s.Carts.FindActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "i1", got.Items[0].ID)
	assert.Equal(t, "21.99", got.Total().StringFixed(2))

	require.NoError(t, got.RemoveItem("i1"))
	require.NoError(t, s.Carts.Save(ctx, got))
	got, _ = s.Carts.Get(ctx, "c1")
	assert.Len(t, got.Items, 1)

	require.NoError(t, convertCart(ctx, s.DB, "c1"))
	assert.ErrorIs(t, s.Carts.Save(ctx, got), cart.ErrNotActive)
	_, err = s.Carts.FindActive(ctx, "u1")
	assert.ErrorIs(t, err, cart.ErrNotFound)

	next, err := s.Carts.GetOrCreateActive(ctx, cart.New("c3", "u1"))
	require.NoError(t, err)
	assert.Equal(t, "c3", next.ID)
}

func TestSQLite_CheckoutCommitAndRollback(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	_, _ = s.Ledger.InitStock(ctx, "ring-1", 1)
	_, err := s.Carts.GetOrCreateActive(ctx, cart.New("c1", "u1"))
	require.NoError(t, err)

	o, err := domorder.New(domorder.Draft{
		ID: "o1", UserID: "u1", UserEmail: "ada@example.com", CartID: "c1", IdempotencyKey: "k1",
		Items: []domorder.LineItem{{ProductID: "ring-1", Name: "Ring", UnitPrice: decimal.RequireFromString("50"), Quantity: 1}},
		Shipping: domorder.ShippingAddress{
			FullName: "Ada", AddressLine1: "1 Gem St", City: "London", State: "LDN",
			PostalCode: "N1", Country: "UK", PhoneNumber: "123",
		},
		Payment: payment.Method{Kind: payment.KindCard, LastFourDigits: "4242"},
	}, defaultPolicy())
	require.NoError(t, err)

	commit := func(o *domorder.Order) error {
		return s.UnitOfWork.Do(ctx, func(ctx context.Context, tx checkout.Tx) error {
			if err := tx.Decrement(ctx, "ring-1", 1); err != nil {
				return err
			}
			if err := tx.InsertOrder(ctx, o); err != nil {
				return err
			}
			return tx.ConvertCart(ctx, o.CartID)
		})
	}
	require.NoError(t, commit(o))

	stored, err := s.Orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "55.00", stored.Totals.Total.StringFixed(2))
	assert.Equal(t, "4242", stored.Payment.LastFourDigits)
	assert.Equal(t, "London", stored.Shipping.City)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "50.00", stored.Items[0].LineTotal.StringFixed(2))

	replay, err := s.Orders.FindByIdempotency(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.Equal(t, "o1", replay.ID)

	// Second checkout from a fresh cart: stock is gone, nothing sticks.
	_, err = s.Carts.GetOrCreateActive(ctx, cart.New("c2", "u1"))
	require.NoError(t, err)
	o2 := o.Clone()
	o2.ID, o2.CartID, o2.IdempotencyKey = "o2", "c2", ""
	assert.ErrorIs(t, commit(o2), inventory.ErrInsufficientStock)

	_, err = s.Orders.Get(ctx, "o2")
	assert.ErrorIs(t, err, domorder.ErrNotFound)
	active, err := s.Carts.FindActive(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "c2", active.ID)
	n, _ := s.Ledger.Available(ctx, "ring-1")
	assert.Equal(t, 0, n)
}

func TestSQLite_OrderQueries(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i, id := range []string{"o1", "o2", "o3"} {
		o := sampleOrder()
		o.ID = id
		o.CartID = "c-" + id
		o.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if id == "o2" {
			o.UserID = "u2"
		}
		require.NoError(t, s.Orders.Insert(ctx, o))
	}
	dup := sampleOrder()
	assert.ErrorIs(t, s.Orders.Insert(ctx, dup), domorder.ErrConflict)

	mine, err := s.Orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "o3", mine[0].ID)
	assert.Len(t, mine[0].Items, 1)

	require.NoError(t, s.Orders.UpdateStatus(ctx, "o1", domorder.StatusPending, domorder.StatusProcessing, time.Now()))
	assert.ErrorIs(t,
		s.Orders.UpdateStatus(ctx, "o1", domorder.StatusPending, domorder.StatusCancelled, time.Now()),
		domorder.ErrConflict)
	assert.ErrorIs(t,
		s.Orders.UpdateStatus(ctx, "ghost", domorder.StatusPending, domorder.StatusCancelled, time.Now()),
		domorder.ErrNotFound)

	processing, err := s.Orders.List(ctx, domorder.ListFilter{Status: domorder.StatusProcessing})
	require.NoError(t, err)
	require.Len(t, processing, 1)
	assert.Equal(t, "o1", processing[0].ID)

	all, err := s.Orders.List(ctx, domorder.ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "o3", all[0].ID)
}

func defaultPolicy() pricing.Policy { return pricing.DefaultPolicy() }
