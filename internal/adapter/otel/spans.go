package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "arbiter"

// StartDecisionSpan starts a span for a single decision call.
func StartDecisionSpan(ctx context.Context, optionCount int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "decide",
		trace.WithAttributes(
			attribute.Int("decision.option_count", optionCount),
		),
	)
}

// DecisionAttributes returns the span attributes describing a completed
// decision.
func DecisionAttributes(decisionID, optionID string, score, confidence float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("decision.id", decisionID),
		attribute.String("decision.option_id", optionID),
		attribute.Float64("decision.score", score),
		attribute.Float64("decision.confidence", confidence),
	}
}
