package memory

import (
	"context"
	"testing"

	domain "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/cart"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCartRepository_OneActivePerUser(t *testing.T) {
	ctx := context.Background()
	r := NewCartRepository()

	ids := make([]string, 16)
	var g errgroup.Group
	for i := range ids {
		g.Go(func() error {
			c, err := r.GetOrCreateActive(ctx, domain.New("cart-"+string(rune('a'+i)), "u1"))
			if err != nil {
				return err
			}
			ids[i] = c.ID
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestCartRepository_SaveAndConvert(t *testing.T) {
	ctx := context.Background()
	r := NewCartRepository()

	c, err := r.GetOrCreateActive(ctx, domain.New("c1", "u1"))
	require.NoError(t, err)
	_, err = c.AddItem("i1", "ring-1", 1, decimal.RequireFromString("10"))
	require.NoError(t, err)
	require.NoError(t, r.Save(ctx, c))

	got, err := r.FindActive(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, "10.00", got.Total().StringFixed(2))

	require.NoError(t, r.convert("c1"))
	_, err = r.FindActive(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, r.Save(ctx, c), domain.ErrNotActive)
	assert.ErrorIs(t, r.convert("c1"), domain.ErrNotActive)

	require.NoError(t, r.reactivate("c1"))
	got, err = r.FindActive(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
	assert.True(t, got.IsActive())
}

func TestCartRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewCartRepository()
	c, _ := r.GetOrCreateActive(ctx, domain.New("c1", "u1"))
	_, _ = c.AddItem("i1", "ring-1", 1, decimal.RequireFromString("10"))

	stored, _ := r.Get(ctx, "c1")
	assert.True(t, stored.IsEmpty())
}
