package inventory

import (
	"time"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/outbox"
)

// StockRestockedEvent is emitted after an admin restock is applied.
type StockRestockedEvent struct {
	ProductID  string
	Added      int
	Available  int
	ActorID    string
	OccurredAt time.Time
}

func (StockRestockedEvent) EventName() string       { return outbox.StockRestocked }
func (e StockRestockedEvent) OccurredOn() time.Time { return e.OccurredAt }

func NewStockRestockedEvent(productID string, added, available int, actorID string) StockRestockedEvent {
	return StockRestockedEvent{
		ProductID:  productID,
		Added:      added,
		Available:  available,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
}
