package observability

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
	"github.com/stretchr/testify/assert"
)

type countingCounter struct{ total float64 }

func (c *countingCounter) Add(d float64, _ ...observability.Label) { c.total += d }
func (c *countingCounter) Bind(...observability.Label) observability.BoundCounter {
	return observability.NopCounter().Bind()
}

func TestNew_FallsBackToNop(t *testing.T) {
	p := New(Options{})

	ctx, span := p.Tracer().Start(context.Background(), "UC.Test")
	span.End()
	assert.NotNil(t, ctx)
	assert.NotNil(t, p.Logger())
	assert.NotPanics(t, func() {
		p.Metrics().Counter(observability.MUsecaseRequests).Add(1)
		p.Metrics().Histogram(observability.MUsecaseDuration).Observe(1)
	})
}

func TestNew_ResolvesRegisteredCounters(t *testing.T) {
	c := &countingCounter{}
	p := New(Options{Counters: map[observability.MetricKey]observability.Counter{
		observability.MOrdersPlaced: c,
	}})

	p.Metrics().Counter(observability.MOrdersPlaced).Add(2)
	p.Metrics().Counter(observability.MCheckoutRollbacks).Add(5)

	assert.Equal(t, float64(2), c.total)
}
