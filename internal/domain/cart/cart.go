// Package cart models a user's shopping cart.
//
// The cart total is derived state: it is recomputed by the pricing
// calculator after every mutation and cannot be set from outside.
package cart

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = apperr.WithCode(apperr.KindNotFound, apperr.CodeCartNotFound, "cart: not found")
	ErrItemNotFound = apperr.WithCode(apperr.KindNotFound, apperr.CodeCartItemNotFound, "cart: item not found")
	ErrNotActive    = apperr.WithCode(apperr.KindConflict, apperr.CodeCartNotActive, "cart: cart is no longer active")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusConverted Status = "converted"
	StatusAbandoned Status = "abandoned"
)

type Item struct {
	ID        string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

type Cart struct {
	ID        string
	UserID    string
	Status    Status
	Items     []Item
	CreatedAt time.Time
	UpdatedAt time.Time

	total decimal.Decimal
}

func New(id, userID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		ID:        id,
		UserID:    userID,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
		total:     pricing.Total(nil),
	}
}

// Restore rebuilds a cart loaded from storage; the total is recomputed.
func Restore(id, userID string, status Status, items []Item, createdAt, updatedAt time.Time) *Cart {
	c := &Cart{
		ID:        id,
		UserID:    userID,
		Status:    status,
		Items:     append([]Item(nil), items...),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	c.recompute()
	return c
}

func (c *Cart) Total() decimal.Decimal { return c.total }

func (c *Cart) IsActive() bool { return c.Status == StatusActive }

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}
	return lines
}

func (c *Cart) Item(itemID string) (Item, bool) {
	for _, it := range c.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return Item{}, false
}

// AddItem merges quantity into the line for productID, or appends a new
// line with id newItemID. The captured unit price becomes unitPrice either way.
func (c *Cart) AddItem(newItemID, productID string, quantity int, unitPrice decimal.Decimal) (Item, error) {
	if err := c.mutable(); err != nil {
		return Item{}, err
	}
	if quantity < 1 {
		return Item{}, apperr.ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			c.Items[i].UnitPrice = unitPrice
			c.changed()
			return c.Items[i], nil
		}
	}
	it := Item{ID: newItemID, ProductID: productID, Quantity: quantity, UnitPrice: unitPrice}
	c.Items = append(c.Items, it)
	c.changed()
	return it, nil
}

func (c *Cart) UpdateQuantity(itemID string, quantity int, unitPrice decimal.Decimal) (Item, error) {
	if err := c.mutable(); err != nil {
		return Item{}, err
	}
	if quantity < 1 {
		return Item{}, apperr.ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = quantity
			c.Items[i].UnitPrice = unitPrice
			c.changed()
			return c.Items[i], nil
		}
	}
	return Item{}, ErrItemNotFound
}

func (c *Cart) RemoveItem(itemID string) error {
	if err := c.mutable(); err != nil {
		return err
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.changed()
			return nil
		}
	}
	return ErrItemNotFound
}

func (c *Cart) Clear() error {
	if err := c.mutable(); err != nil {
		return err
	}
	c.Items = nil
	c.changed()
	return nil
}

// MarkConverted retires the cart once an order has been created from it.
func (c *Cart) MarkConverted() error {
	if err := c.mutable(); err != nil {
		return err
	}
	c.Status = StatusConverted
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Items = append([]Item(nil), c.Items...)
	return &clone
}

func (c *Cart) mutable() error {
	if c.Status != StatusActive {
		return ErrNotActive
	}
	return nil
}

func (c *Cart) changed() {
	c.UpdatedAt = time.Now().UTC()
	c.recompute()
}

func (c *Cart) recompute() {
	c.total = pricing.Total(c.Lines())
}

// Repository stores carts. At most one cart per user is active at a time.
type Repository interface {
	// GetOrCreateActive returns the user's active cart, storing candidate as
	// the active cart if there is none. Concurrent callers observe the same cart.
	GetOrCreateActive(ctx context.Context, candidate *Cart) (*Cart, error)
	// FindActive returns ErrNotFound when the user has no active cart.
	FindActive(ctx context.Context, userID string) (*Cart, error)
	Get(ctx context.Context, id string) (*Cart, error)
	// Save replaces the cart's item set. Saving a cart whose stored copy is
	// no longer active fails with ErrNotActive.
	Save(ctx context.Context, c *Cart) error
}
