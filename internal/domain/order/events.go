package order

import (
	"time"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/outbox"
	"github.com/shopspring/decimal"
)

// OrderPlacedEvent is emitted once an order has been committed.
type OrderPlacedEvent struct {
	OrderID       string
	UserID        string
	UserEmail     string
	Total         decimal.Decimal
	ItemCount     int
	PaymentMethod string
	OccurredAt    time.Time
}

func (OrderPlacedEvent) EventName() string       { return outbox.OrderPlaced }
func (e OrderPlacedEvent) OccurredOn() time.Time { return e.OccurredAt }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return OrderPlacedEvent{
		OrderID:       o.ID,
		UserID:        o.UserID,
		UserEmail:     o.UserEmail,
		Total:         o.Totals.Total,
		ItemCount:     n,
		PaymentMethod: string(o.Payment.Kind),
		OccurredAt:    time.Now().UTC(),
	}
}

// OrderStatusChangedEvent is emitted after an admin status update is persisted.
type OrderStatusChangedEvent struct {
	OrderID    string
	UserID     string
	From       Status
	To         Status
	ActorID    string
	OccurredAt time.Time
}

func (OrderStatusChangedEvent) EventName() string       { return outbox.OrderStatusChanged }
func (e OrderStatusChangedEvent) OccurredOn() time.Time { return e.OccurredAt }

func NewOrderStatusChangedEvent(o *Order, from Status, actorID string) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		From:       from,
		To:         o.Status,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
}
