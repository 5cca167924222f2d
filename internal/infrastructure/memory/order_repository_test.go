package memory

import (
	"context"
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedOrder(id, user, key string, created time.Time) *domain.Order {
	return &domain.Order{ID: id, UserID: user, IdempotencyKey: key, Status: domain.StatusPending, CreatedAt: created, UpdatedAt: created}
}

func TestOrderRepository_InsertConflicts(t *testing.T) {
	ctx := context.Background()
	r := NewOrderRepository()
	now := time.Now()

	require.NoError(t, r.Insert(ctx, storedOrder("o1", "u1", "k1", now)))
	assert.ErrorIs(t, r.Insert(ctx, storedOrder("o1", "u1", "", now)), domain.ErrConflict)
	assert.ErrorIs(t, r.Insert(ctx, storedOrder("o2", "u1", "k1", now)), domain.ErrConflict)
	// Keys are scoped per user.
	require.NoError(t, r.Insert(ctx, storedOrder("o3", "u2", "k1", now)))

	o, err := r.FindByIdempotency(ctx, "u2", "k1")
	require.NoError(t, err)
	assert.Equal(t, "o3", o.ID)
	_, err = r.FindByIdempotency(ctx, "u3", "k1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderRepository_Lists(t *testing.T) {
	ctx := context.Background()
	r := NewOrderRepository()
	base := time.Now()

	require.NoError(t, r.Insert(ctx, storedOrder("o1", "u1", "", base)))
	require.NoError(t, r.Insert(ctx, storedOrder("o2", "u2", "", base.Add(time.Second))))
	require.NoError(t, r.Insert(ctx, storedOrder("o3", "u1", "", base.Add(2*time.Second))))

	mine, err := r.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "o3", mine[0].ID)
	assert.Equal(t, "o1", mine[1].ID)

	require.NoError(t, r.UpdateStatus(ctx, "o2", domain.StatusPending, domain.StatusProcessing, time.Now()))
	pending, err := r.List(ctx, domain.ListFilter{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	limited, err := r.List(ctx, domain.ListFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "o3", limited[0].ID)
}

func TestOrderRepository_UpdateStatusIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	r := NewOrderRepository()
	require.NoError(t, r.Insert(ctx, storedOrder("o1", "u1", "", time.Now())))

	require.NoError(t, r.UpdateStatus(ctx, "o1", domain.StatusPending, domain.StatusProcessing, time.Now()))
	err := r.UpdateStatus(ctx, "o1", domain.StatusPending, domain.StatusCancelled, time.Now())
	assert.ErrorIs(t, err, domain.ErrConflict)

	o, _ := r.Get(ctx, "o1")
	assert.Equal(t, domain.StatusProcessing, o.Status)
	assert.ErrorIs(t, r.UpdateStatus(ctx, "nope", domain.StatusPending, domain.StatusProcessing, time.Now()), domain.ErrNotFound)
}
