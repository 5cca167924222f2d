package order

import (
	"context"
	"time"
)

type ListFilter struct {
	Status Status
	Limit  int
}

const DefaultListLimit = 50

// Repository persists orders. Orders are inserted once; only the status is
// ever updated afterwards.
type Repository interface {
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, error)
	FindByIdempotency(ctx context.Context, userID, key string) (*Order, error)
	// UpdateStatus sets to only if the stored status is still from, else ErrConflict.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error
}
