package oteltrace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestStart_RecordsInternalSpanWithAttributes(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	tr := NewWithProvider(tp, "")
	ctx, span := tr.Start(context.Background(), "UC.PlaceOrder", attribute.String("use_case", "checkout.place_order"))
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "UC.PlaceOrder", got.Name())
	assert.Equal(t, trace.SpanKindInternal, got.SpanKind())
	assert.Equal(t, defaultName, got.InstrumentationScope().Name)
	assert.Contains(t, got.Attributes(), attribute.String("use_case", "checkout.place_order"))
}
