// Package outbox is the contract between use cases that emit domain events
// and the workers that react to them.
package outbox

import (
	"context"
	"time"
)

// Event names carried on the bus.
const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status_changed"
	StockRestocked     = "inventory.restocked"
)

type Event interface {
	EventName() string
}

// Stamped is implemented by events that record when their change committed.
type Stamped interface {
	OccurredOn() time.Time
}

// Lag is how long ago e occurred as seen at now. Unstamped events report zero.
func Lag(e Event, now time.Time) time.Duration {
	s, ok := e.(Stamped)
	if !ok {
		return 0
	}
	at := s.OccurredOn()
	if at.IsZero() || now.Before(at) {
		return 0
	}
	return now.Sub(at)
}

type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// Subscriber registers handlers by event name. Handlers for one name run
// concurrently and must not assume delivery order.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
