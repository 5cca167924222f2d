package application

import (
	"context"
	"time"

	domoutbox "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	publishPeer    = "outbox"
	PublishTimeout = 300 * time.Millisecond
)

// Publish hands e to pub with a short deadline and reports the call as an
// external request. Delivery is best effort: a failure is recorded on the
// run and returned, but the run outcome stays untouched.
func (r *Run) Publish(ctx context.Context, pub domoutbox.Publisher, e domoutbox.Event) error {
	if pub == nil {
		return nil
	}
	endpoint := e.EventName()

	pubCtx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()
	start := time.Now()
	outcome := "success"

	err := pub.Publish(pubCtx, e)
	switch {
	case err != nil:
		outcome = "error"
		r.Status("EVENT_PUBLISH_FAILED")
	case pubCtx.Err() != nil:
		outcome = "canceled"
		err = pubCtx.Err()
		r.Status("EVENT_PUBLISH_TIMEOUT")
	}

	r.in.extRequests.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	r.in.extDuration.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
	)

	if err != nil {
		r.Annotate(observability.F("event_publish_error", err.Error()))
		return err
	}
	if r.span != nil {
		r.span.AddEvent(endpoint, trace.WithAttributes(attribute.String("event", endpoint)))
	}
	return nil
}
