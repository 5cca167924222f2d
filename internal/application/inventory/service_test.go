package inventory

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/identity"
	dominv "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct{ events []domoutbox.Event }

func (c *captured) Publish(_ context.Context, e domoutbox.Event) error {
	c.events = append(c.events, e)
	return nil
}

var admin = identity.Principal{UserID: "root", Role: identity.RoleAdmin}

func TestRestock(t *testing.T) {
	ledger := memory.NewLedger()
	_, err := ledger.InitStock(context.Background(), "ring-1", 2)
	require.NoError(t, err)
	pub := &captured{}
	svc := NewService(ledger, pub, nil)

	lvl, err := svc.Restock(context.Background(), RestockInput{Requester: admin, ProductID: "ring-1", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, StockLevel{ProductID: "ring-1", Available: 5}, lvl)

	require.Len(t, pub.events, 1)
	ev := pub.events[0].(dominv.StockRestockedEvent)
	assert.Equal(t, 3, ev.Added)
	assert.Equal(t, 5, ev.Available)
	assert.Equal(t, "root", ev.ActorID)
}

func TestRestock_CreatesMissingEntry(t *testing.T) {
	svc := NewService(memory.NewLedger(), nil, nil)

	lvl, err := svc.Restock(context.Background(), RestockInput{Requester: admin, ProductID: "new-ring", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, lvl.Available)
}

func TestRestock_Rejections(t *testing.T) {
	svc := NewService(memory.NewLedger(), nil, nil)
	ctx := context.Background()

	_, err := svc.Restock(ctx, RestockInput{Requester: identity.Principal{UserID: "u1"}, ProductID: "ring-1", Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Restock(ctx, RestockInput{Requester: admin, ProductID: "ring-1", Quantity: 0})
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)

	_, err = svc.Restock(ctx, RestockInput{Requester: admin, Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestStockLevel(t *testing.T) {
	ledger := memory.NewLedger()
	_, err := ledger.InitStock(context.Background(), "ring-1", 7)
	require.NoError(t, err)
	svc := NewService(ledger, nil, nil)

	lvl, err := svc.StockLevel(context.Background(), "ring-1")
	require.NoError(t, err)
	assert.Equal(t, 7, lvl.Available)

	_, err = svc.StockLevel(context.Background(), "ghost")
	assert.ErrorIs(t, err, dominv.ErrNotFound)
}
