// Package redisledger keeps the stock ledger in Redis, one integer key per
// product. Check-and-decrement runs as a Lua script so Redis applies it
// atomically.
package redisledger

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/inventory"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "stock:"

// decrementScript returns -1 if the key is missing, -2 if stock is short,
// otherwise the remaining stock.
// KEYS[1] = stock key
// ARGV[1] = quantity
var decrementScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if not current then
    return -1
end
current = tonumber(current)
local qty = tonumber(ARGV[1])
if current < qty then
    return -2
end
return redis.call("DECRBY", KEYS[1], qty)
`)

type Ledger struct {
	client redis.UniversalClient
	prefix string
}

type Options struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// New wraps client. prefix namespaces keys; empty means "stock:".
func New(client redis.UniversalClient, prefix string) *Ledger {
	if prefix == "" {
		prefix = keyPrefix
	}
	return &Ledger{client: client, prefix: prefix}
}

func (l *Ledger) key(productID string) string { return l.prefix + productID }

func (l *Ledger) Available(ctx context.Context, productID string) (int, error) {
	n, err := l.client.Get(ctx, l.key(productID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("redisledger: get: %w", err)
	}
	return n, nil
}

func (l *Ledger) CheckAvailable(ctx context.Context, productID string, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, domain.ErrInvalidQuantity
	}
	n, err := l.Available(ctx, productID)
	if err != nil {
		return false, err
	}
	return quantity <= n, nil
}

func (l *Ledger) Decrement(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	res, err := decrementScript.Run(ctx, l.client, []string{l.key(productID)}, quantity).Int64()
	if err != nil {
		return fmt.Errorf("redisledger: decrement: %w", err)
	}
	switch res {
	case -1:
		return domain.ErrNotFound
	case -2:
		return domain.ErrInsufficientStock
	}
	return nil
}

func (l *Ledger) Restock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	if err := l.client.IncrBy(ctx, l.key(productID), int64(quantity)).Err(); err != nil {
		return fmt.Errorf("redisledger: restock: %w", err)
	}
	return nil
}

// InitStock creates the entry with available units unless one already exists.
func (l *Ledger) InitStock(ctx context.Context, productID string, quantity int) (bool, error) {
	if quantity < 0 {
		return false, domain.ErrInvalidQuantity
	}
	ok, err := l.client.SetNX(ctx, l.key(productID), quantity, 0).Result()
	if err != nil {
		return false, fmt.Errorf("redisledger: init: %w", err)
	}
	return ok, nil
}

func (l *Ledger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
