package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Component names used in Meta.
const (
	ComponentCheck    = "check"
	ComponentHeal     = "heal"
	ComponentRecovery = "recovery"
	ComponentHTTP     = "http"
)

// Meta describes the unit of work being observed.
type Meta struct {
	Component string // check|heal|recovery|http (required)
	ID        string // check ID, healer ID or unit ID (required)
	Name      string // human-readable name (optional)
	Domain    string // check domain (optional)
	Severity  string // check severity (optional)
	Tier      int    // healing tier (optional)
}

// SpanName returns the deterministic span name: selfheal.<component>.<id>.
func (m Meta) SpanName() string {
	return "selfheal." + m.Component + "." + m.ID
}

// Fields returns the metadata as log fields, omitting empty values.
func (m Meta) Fields() []Field {
	fields := []Field{
		{Key: "component", Value: m.Component},
		{Key: m.Component + ".id", Value: m.ID},
	}
	if m.Name != "" {
		fields = append(fields, Field{Key: m.Component + ".name", Value: m.Name})
	}
	if m.Domain != "" {
		fields = append(fields, Field{Key: "domain", Value: m.Domain})
	}
	if m.Severity != "" {
		fields = append(fields, Field{Key: "severity", Value: m.Severity})
	}
	if m.Tier > 0 {
		fields = append(fields, Field{Key: "tier", Value: m.Tier})
	}
	return fields
}

func (m Meta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("selfheal.component", m.Component),
		attribute.String("selfheal.id", m.ID),
	}
	if m.Name != "" {
		attrs = append(attrs, attribute.String("selfheal.name", m.Name))
	}
	if m.Domain != "" {
		attrs = append(attrs, attribute.String("selfheal.domain", m.Domain))
	}
	if m.Severity != "" {
		attrs = append(attrs, attribute.String("selfheal.severity", m.Severity))
	}
	if m.Tier > 0 {
		attrs = append(attrs, attribute.Int("selfheal.tier", m.Tier))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with selfheal span conventions.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for the unit of work.
	StartSpan(ctx context.Context, meta Meta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta Meta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(meta.attributes()...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NopTracer returns a tracer whose spans are never recorded.
func NopTracer() Tracer {
	return &tracerImpl{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}
