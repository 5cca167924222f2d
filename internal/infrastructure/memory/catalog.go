package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/catalog"
)

type Catalog struct {
	mu       sync.RWMutex
	products map[string]catalog.Product
}

func NewCatalog() *Catalog {
	return &Catalog{products: make(map[string]catalog.Product)}
}

func (c *Catalog) Product(ctx context.Context, id string) (catalog.Product, error) {
	_ = ctx

	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (c *Catalog) Upsert(ctx context.Context, p catalog.Product) error {
	_ = ctx

	c.mu.Lock()
	defer c.mu.Unlock()

	c.products[p.ID] = p
	return nil
}
