package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records check, healing and recovery outcomes.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCheck records one check result.
	RecordCheck(ctx context.Context, meta Meta, status string, duration time.Duration, fromCache bool)

	// RecordHeal records one healing action.
	RecordHeal(ctx context.Context, meta Meta, action string, success bool)

	// RecordRecovery records one recovery decision.
	RecordRecovery(ctx context.Context, meta Meta, strategy string, escalated bool)
}

type metricsImpl struct {
	checkTotal    metric.Int64Counter
	checkCacheHit metric.Int64Counter
	checkDuration metric.Float64Histogram
	healTotal     metric.Int64Counter
	recoveryTotal metric.Int64Counter
	escalations   metric.Int64Counter
}

// NewMetrics creates the selfheal instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &metricsImpl{}
	var err error

	if m.checkTotal, err = meter.Int64Counter(
		"selfheal.check.total",
		metric.WithDescription("Total number of check results"),
		metric.WithUnit("{check}"),
	); err != nil {
		return nil, err
	}

	if m.checkCacheHit, err = meter.Int64Counter(
		"selfheal.check.cache_hits",
		metric.WithDescription("Check results served from cache"),
		metric.WithUnit("{check}"),
	); err != nil {
		return nil, err
	}

	if m.checkDuration, err = meter.Float64Histogram(
		"selfheal.check.duration_ms",
		metric.WithDescription("Check execution duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.healTotal, err = meter.Int64Counter(
		"selfheal.heal.total",
		metric.WithDescription("Total number of healing actions"),
		metric.WithUnit("{action}"),
	); err != nil {
		return nil, err
	}

	if m.recoveryTotal, err = meter.Int64Counter(
		"selfheal.recovery.total",
		metric.WithDescription("Total number of recovery decisions"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, err
	}

	if m.escalations, err = meter.Int64Counter(
		"selfheal.recovery.escalations",
		metric.WithDescription("Units escalated to a human"),
		metric.WithUnit("{escalation}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordCheck(ctx context.Context, meta Meta, status string, duration time.Duration, fromCache bool) {
	attrs := []attribute.KeyValue{
		attribute.String("check.id", meta.ID),
		attribute.String("check.status", status),
	}
	if meta.Domain != "" {
		attrs = append(attrs, attribute.String("check.domain", meta.Domain))
	}
	opt := metric.WithAttributes(attrs...)

	m.checkTotal.Add(ctx, 1, opt)
	if fromCache {
		m.checkCacheHit.Add(ctx, 1, metric.WithAttributes(attribute.String("check.id", meta.ID)))
		return
	}
	m.checkDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordHeal(ctx context.Context, meta Meta, action string, success bool) {
	m.healTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check.id", meta.ID),
		attribute.Int("heal.tier", meta.Tier),
		attribute.String("heal.action", action),
		attribute.Bool("heal.success", success),
	))
}

func (m *metricsImpl) RecordRecovery(ctx context.Context, meta Meta, strategy string, escalated bool) {
	m.recoveryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("recovery.strategy", strategy),
	))
	if escalated {
		m.escalations.Add(ctx, 1)
	}
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return noopMetrics{} }

type noopMetrics struct{}

func (noopMetrics) RecordCheck(context.Context, Meta, string, time.Duration, bool) {}
func (noopMetrics) RecordHeal(context.Context, Meta, string, bool)                 {}
func (noopMetrics) RecordRecovery(context.Context, Meta, string, bool)             {}
