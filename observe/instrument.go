package observe

import (
	"context"
	"time"
)

// Instrumentation bundles the tracer, metrics and logger handed to the
// health, heal and recovery components.
//
// Contract:
//   - Concurrency: safe for concurrent use when its parts are.
//   - Nil: a nil *Instrumentation behaves like Nop().
type Instrumentation struct {
	Tracer  Tracer
	Metrics Metrics
	Logger  Logger
}

// NewInstrumentation creates an Instrumentation, substituting no-op parts
// for nil arguments.
func NewInstrumentation(tracer Tracer, metrics Metrics, logger Logger) *Instrumentation {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Instrumentation{Tracer: tracer, Metrics: metrics, Logger: logger}
}

// Nop returns an Instrumentation that records nothing.
func Nop() *Instrumentation {
	return NewInstrumentation(nil, nil, nil)
}

// FromObserver builds Instrumentation from an Observer.
func FromObserver(obs Observer) (*Instrumentation, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewInstrumentation(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// OrNop returns i, or Nop() when i is nil.
func (i *Instrumentation) OrNop() *Instrumentation {
	if i == nil {
		return Nop()
	}
	return i
}

// Span runs fn inside a span named after meta and logs its completion at
// debug level. The error returned by fn is recorded and passed through.
func (i *Instrumentation) Span(ctx context.Context, meta Meta, fn func(ctx context.Context) error) error {
	i = i.OrNop()

	ctx, span := i.Tracer.StartSpan(ctx, meta)
	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)
	i.Tracer.EndSpan(span, err)

	fields := append(meta.Fields(), Field{Key: "duration_ms", Value: float64(duration.Milliseconds())})
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
	}
	i.Logger.Debug(ctx, meta.Component+" finished", fields...)

	return err
}
