package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/inventory"
)

// Ledger keeps stock in a map. Every operation is one critical section, so
// check-and-decrement is atomic with respect to all other callers.
type Ledger struct {
	mu    sync.Mutex
	items map[string]*domain.Item
}

func NewLedger() *Ledger {
	return &Ledger{items: make(map[string]*domain.Item)}
}

func (l *Ledger) Available(ctx context.Context, productID string) (int, error) {
	_ = ctx

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[productID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return item.Available, nil
}

func (l *Ledger) CheckAvailable(ctx context.Context, productID string, quantity int) (bool, error) {
	_ = ctx
	if quantity <= 0 {
		return false, domain.ErrInvalidQuantity
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[productID]
	if !ok {
		return false, domain.ErrNotFound
	}
	return item.Covers(quantity), nil
}

func (l *Ledger) Decrement(ctx context.Context, productID string, quantity int) error {
	_ = ctx

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[productID]
	if !ok {
		return domain.ErrNotFound
	}
	return item.Deduct(quantity)
}

func (l *Ledger) Restock(ctx context.Context, productID string, quantity int) error {
	_ = ctx
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[productID]
	if !ok {
		item, _ = domain.NewItem(productID, 0)
		l.items[productID] = item
	}
	return item.Add(quantity)
}

// InitStock creates the entry with available units unless one already exists.
func (l *Ledger) InitStock(ctx context.Context, productID string, available int) (bool, error) {
	_ = ctx

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.items[productID]; ok {
		return false, nil
	}
	item, err := domain.NewItem(productID, available)
	if err != nil {
		return false, err
	}
	l.items[productID] = item
	return true, nil
}
