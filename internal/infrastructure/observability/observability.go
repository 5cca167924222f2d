// Package observability assembles the process-wide Observability provider
// from a tracer, a logger and the registered metric instruments.
package observability

import (
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
)

type Options struct {
	Tracer     observability.Tracer
	Logger     observability.Logger
	Counters   map[observability.MetricKey]observability.Counter
	Histograms map[observability.MetricKey]observability.Histogram
}

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics instruments
}

// instruments resolves metric keys. A key that was never registered gets a
// no-op instrument, so callers never nil-check.
type instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (m instruments) Counter(name observability.MetricKey) observability.Counter {
	if c := m.counters[name]; c != nil {
		return c
	}
	return observability.NopCounter()
}

func (m instruments) Histogram(name observability.MetricKey) observability.Histogram {
	if h := m.histograms[name]; h != nil {
		return h
	}
	return observability.NopHistogram()
}

func New(opts Options) observability.Observability {
	p := &provider{
		tracer: opts.Tracer,
		logger: opts.Logger,
		metrics: instruments{
			counters:   withoutNil(opts.Counters),
			histograms: withoutNil(opts.Histograms),
		},
	}
	if p.tracer == nil {
		p.tracer = observability.NopTracer()
	}
	if p.logger == nil {
		p.logger = observability.NopLogger()
	}
	return p
}

func withoutNil[V comparable](in map[observability.MetricKey]V) map[observability.MetricKey]V {
	var zero V
	out := make(map[observability.MetricKey]V, len(in))
	for k, v := range in {
		if v != zero {
			out[k] = v
		}
	}
	return out
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p.metrics }
