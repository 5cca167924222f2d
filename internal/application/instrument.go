package application

import (
	"context"
	"strings"
	"time"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const SpanPrefix = "UC."

// Instrumentation carries the RED instruments every use case reports to.
// Instruments are resolved once at construction, never per call.
type Instrumentation struct {
	tracer   observability.Tracer
	log      observability.Logger
	metrics  observability.Metrics
	requests observability.Counter   // usecase_requests_total{use_case,outcome}
	duration observability.Histogram // usecase_duration_seconds{use_case}

	extRequests observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extDuration observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewInstrumentation(tel observability.Observability, service string) Instrumentation {
	if tel == nil {
		tel = observability.Nop()
	}
	return Instrumentation{
		tracer:      tel.Tracer(),
		log:         tel.Logger().With(observability.F("service", service)),
		metrics:     tel.Metrics(),
		requests:    tel.Metrics().Counter(observability.MUsecaseRequests),
		duration:    tel.Metrics().Histogram(observability.MUsecaseDuration),
		extRequests: tel.Metrics().Counter(observability.MExternalRequests),
		extDuration: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

func (in Instrumentation) Logger() observability.Logger { return in.log }

// Metrics exposes the backing provider for use case specific instruments.
func (in Instrumentation) Metrics() observability.Metrics { return in.metrics }

// Run is one in-flight use case execution.
type Run struct {
	useCase string
	start   time.Time
	ctx     context.Context
	span    trace.Span
	logger  observability.Logger
	in      Instrumentation

	outcome string
	status  string
	fields  []observability.Field
}

// Start opens the span for useCase and binds a use-case scoped logger into
// the returned context. The caller must End the run exactly once.
func (in Instrumentation) Start(ctx context.Context, useCase, operation string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, SpanPrefix+operation, attrs...)

	ctx, logger := logctx.Enrich(ctx, in.log, observability.F("use_case", useCase))

	return ctx, &Run{
		useCase: useCase,
		start:   time.Now(),
		ctx:     ctx,
		span:    span,
		logger:  logger,
		in:      in,
		outcome: "success",
		status:  "OK",
	}
}

// Fail marks the run as failed with a machine readable status.
func (r *Run) Fail(status string) {
	r.outcome, r.status = "error", status
}

// Status replaces the status text without changing the outcome.
func (r *Run) Status(status string) {
	r.status = status
}

// Annotate adds fields to the closing use_case_done log.
func (r *Run) Annotate(fields ...observability.Field) {
	r.fields = append(r.fields, fields...)
}

func (r *Run) Span() trace.Span { return r.span }

func (r *Run) Logger() observability.Logger { return r.logger }

// End closes the span, records metrics and emits the use_case_done log.
// A non-nil err on a run nobody marked failed is classified by its kind.
func (r *Run) End(err error) {
	if err != nil && r.outcome != "error" {
		r.Fail(statusFor(err))
	}
	lat := time.Since(r.start).Seconds()

	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, r.status)
		} else {
			r.span.SetStatus(codes.Ok, r.status)
		}
		r.span.End()
	}

	r.in.requests.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.outcome),
	)
	r.in.duration.Observe(lat, observability.L("use_case", r.useCase))

	fields := []observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", lat),
	}
	if sc := trace.SpanContextFromContext(r.ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	fields = append(fields, r.fields...)
	if err != nil {
		fields = append(fields, observability.Err(err))
	}
	r.logger.Info("use_case_done", fields...)
}

// statusFor turns an error kind into an upper snake case status, e.g.
// OutOfStock becomes OUT_OF_STOCK.
func statusFor(err error) string {
	e, ok := apperr.As(err)
	if !ok {
		return "INTERNAL"
	}
	name := string(e.Kind)
	if e.Code != "" {
		name = e.Code
	}
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}
