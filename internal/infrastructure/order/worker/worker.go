// Package worker consumes order events from the outbox bus and turns them
// into customer notifications.
package worker

import (
	"context"
	"fmt"

	dominv "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability/logctx"
	workerpresentation "github.com/Zhima-Mochi/jewelry-checkout/internal/presentation/worker"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const workerService = "order-worker"

// Notification is a message addressed to a customer. Delivery channels are
// up to the Notifier.
type Notification struct {
	Topic   string
	UserID  string
	Email   string
	OrderID string
	Subject string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the context logger instead of
// delivering them.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	logctx.FromOr(ctx, observability.NopLogger()).Info("notification_queued",
		observability.F("topic", n.Topic),
		observability.F("user_id", n.UserID),
		observability.F("email", n.Email),
		observability.F("order_id", n.OrderID),
		observability.F("subject", n.Subject),
	)
	return nil
}

type Worker struct {
	subscriber domoutbox.Subscriber
	notifier   Notifier

	log    observability.Logger
	tracer observability.Tracer
	placed observability.Counter // orders_placed_total{payment_method}
}

func New(subscriber domoutbox.Subscriber, notifier Notifier, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Worker{
		subscriber: subscriber,
		notifier:   notifier,
		log:        tel.Logger().With(observability.F("service", workerService)),
		tracer:     tel.Tracer(),
		placed:     tel.Metrics().Counter(observability.MOrdersPlaced),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(domoutbox.OrderPlaced, w.handleOrderPlaced)
	w.subscriber.Subscribe(domoutbox.OrderStatusChanged, w.handleStatusChanged)
	w.subscriber.Subscribe(domoutbox.StockRestocked, w.handleRestocked)
}

func (w *Worker) handleOrderPlaced(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domorder.OrderPlacedEvent)
	if !ok {
		return nil
	}
	ctx, done := w.begin(ctx, e, map[string]string{"order_id": evt.OrderID, "user_id": evt.UserID})
	defer func() { done(err) }()

	w.placed.Add(1, observability.L("payment_method", evt.PaymentMethod))

	return w.notify(ctx, Notification{
		Topic:   "order_confirmation",
		UserID:  evt.UserID,
		Email:   evt.UserEmail,
		OrderID: evt.OrderID,
		Subject: fmt.Sprintf("Order %s confirmed: %d items, total %s", evt.OrderID, evt.ItemCount, evt.Total.StringFixed(2)),
	})
}

func (w *Worker) handleStatusChanged(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domorder.OrderStatusChangedEvent)
	if !ok {
		return nil
	}
	ctx, done := w.begin(ctx, e, map[string]string{"order_id": evt.OrderID, "user_id": evt.UserID, "to": string(evt.To)})
	defer func() { done(err) }()

	return w.notify(ctx, Notification{
		Topic:   "order_status_update",
		UserID:  evt.UserID,
		OrderID: evt.OrderID,
		Subject: fmt.Sprintf("Order %s is now %s", evt.OrderID, evt.To),
	})
}

func (w *Worker) handleRestocked(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(dominv.StockRestockedEvent)
	if !ok {
		return nil
	}
	ctx, done := w.begin(ctx, e, map[string]string{"product_id": evt.ProductID})
	defer func() { done(err) }()

	logctx.FromOr(ctx, w.log).Info("stock_restocked",
		observability.F("added", evt.Added),
		observability.F("available", evt.Available),
		observability.F("actor_id", evt.ActorID),
	)
	return nil
}

// begin opens the handler span and binds the event logger. done ends both.
func (w *Worker) begin(ctx context.Context, e domoutbox.Event, attrs map[string]string) (context.Context, func(error)) {
	name := e.EventName()
	ctx, span := w.tracer.Start(ctx, "Event."+name, attribute.String("event", name))
	ctx = workerpresentation.WithEventContext(ctx, w.log, name, attrs)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "HANDLER_FAILED")
			logctx.FromOr(ctx, w.log).Error("event_handler_failed", observability.Err(err))
		} else {
			span.SetStatus(codes.Ok, "OK")
		}
		span.End()
	}
}

func (w *Worker) notify(ctx context.Context, n Notification) error {
	if err := w.notifier.Notify(ctx, n); err != nil {
		return fmt.Errorf("order worker: notify %s: %w", n.Topic, err)
	}
	return nil
}
