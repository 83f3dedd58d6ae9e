package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "arbiter"

// Metrics holds all Arbiter metric instruments. A nil *Metrics is valid and
// records nothing, so callers never need to guard instrumentation sites.
type Metrics struct {
	DecisionsMade      metric.Int64Counter
	DecisionsFailed    metric.Int64Counter
	OutcomesRecorded   metric.Int64Counter
	DecisionScore      metric.Float64Histogram
	DecisionConfidence metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.DecisionsMade, err = meter.Int64Counter("arbiter.decisions.made",
		metric.WithDescription("Number of decisions made"))
	if err != nil {
		return nil, err
	}

	m.DecisionsFailed, err = meter.Int64Counter("arbiter.decisions.failed",
		metric.WithDescription("Number of decision calls that failed"))
	if err != nil {
		return nil, err
	}

	m.OutcomesRecorded, err = meter.Int64Counter("arbiter.outcomes.recorded",
		metric.WithDescription("Number of outcome reports applied"))
	if err != nil {
		return nil, err
	}

	m.DecisionScore, err = meter.Float64Histogram("arbiter.decision.score",
		metric.WithDescription("Winning option score"))
	if err != nil {
		return nil, err
	}

	m.DecisionConfidence, err = meter.Float64Histogram("arbiter.decision.confidence",
		metric.WithDescription("Winning option confidence"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordDecision records a successful decision's score and confidence.
func (m *Metrics) RecordDecision(ctx context.Context, score, confidence float64) {
	if m == nil {
		return
	}
	m.DecisionsMade.Add(ctx, 1)
	m.DecisionScore.Record(ctx, score)
	m.DecisionConfidence.Record(ctx, confidence)
}

// RecordFailure records a failed decision call labeled with its error kind.
func (m *Metrics) RecordFailure(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.DecisionsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordOutcome records an applied outcome report.
func (m *Metrics) RecordOutcome(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.OutcomesRecorded.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}
