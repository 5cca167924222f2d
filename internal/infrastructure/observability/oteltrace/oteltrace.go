// Package oteltrace adapts an OpenTelemetry tracer to observability.Tracer.
package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultName = "jewelry-checkout"

type tracer struct{ t trace.Tracer }

// New returns a tracer bound to the globally installed tracer provider.
func New(name string) observability.Tracer {
	return NewWithProvider(otel.GetTracerProvider(), name)
}

// NewWithProvider binds the tracer to tp. Use-case and event spans are
// internal; the HTTP middleware opens its own server spans.
func NewWithProvider(tp trace.TracerProvider, name string) observability.Tracer {
	if name == "" {
		name = defaultName
	}
	return &tracer{t: tp.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...), trace.WithSpanKind(trace.SpanKindInternal))
}
