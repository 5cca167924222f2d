package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/cart"
)

// CartRepository keeps carts in memory with an index of the single active
// cart per user.
type CartRepository struct {
	mu     sync.RWMutex
	carts  map[string]*domain.Cart
	active map[string]string // user id -> cart id
}

func NewCartRepository() *CartRepository {
	return &CartRepository{
		carts:  make(map[string]*domain.Cart),
		active: make(map[string]string),
	}
}

func (r *CartRepository) GetOrCreateActive(ctx context.Context, candidate *domain.Cart) (*domain.Cart, error) {
	_ = ctx
	if candidate == nil || candidate.ID == "" || candidate.UserID == "" {
		return nil, fmt.Errorf("cart repository: id and user id are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.active[candidate.UserID]; ok {
		return r.carts[id].Clone(), nil
	}
	r.carts[candidate.ID] = candidate.Clone()
	r.active[candidate.UserID] = candidate.ID
	return candidate.Clone(), nil
}

func (r *CartRepository) FindActive(ctx context.Context, userID string) (*domain.Cart, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.active[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.carts[id].Clone(), nil
}

func (r *CartRepository) Get(ctx context.Context, id string) (*domain.Cart, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.carts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *CartRepository) Save(ctx context.Context, c *domain.Cart) error {
	_ = ctx
	if c == nil || c.ID == "" {
		return fmt.Errorf("cart repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.carts[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if !stored.IsActive() || !c.IsActive() {
		return domain.ErrNotActive
	}
	r.carts[c.ID] = c.Clone()
	return nil
}

// convert flips an active cart to converted.
func (r *CartRepository) convert(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.carts[id]
	if !ok {
		return domain.ErrNotFound
	}
	next := stored.Clone()
	if err := next.MarkConverted(); err != nil {
		return err
	}
	r.carts[id] = next
	delete(r.active, next.UserID)
	return nil
}

// reactivate undoes convert.
func (r *CartRepository) reactivate(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.carts[id]
	if !ok {
		return domain.ErrNotFound
	}
	if other, taken := r.active[stored.UserID]; taken && other != id {
		return fmt.Errorf("cart repository: user %s already has active cart %s", stored.UserID, other)
	}
	r.carts[id] = domain.Restore(stored.ID, stored.UserID, domain.StatusActive, stored.Items, stored.CreatedAt, stored.UpdatedAt)
	r.active[stored.UserID] = id
	return nil
}
