// Package journal defines the port for the decision audit journal: a
// write-through record of every decision and reported outcome. The engine's
// working state stays in memory; the journal exists for audit and replay.
package journal

import (
	"context"
	"time"

	"github.com/strategis-io/arbiter/internal/domain/decision"
)

// Record is one journaled decision with its (possibly pending) outcome.
type Record struct {
	DecisionID     string            `json:"decision_id"`
	SelectedOption decision.Option   `json:"selected_option"`
	Confidence     float64           `json:"confidence"`
	Reasoning      string            `json:"reasoning"`
	Alternatives   []decision.Option `json:"alternatives,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`

	ActualBenefit    float64    `json:"actual_benefit"`
	ActualDurationMS int64      `json:"actual_duration_ms"`
	Success          bool       `json:"success"`
	OutcomeAt        *time.Time `json:"outcome_at,omitempty"`
}

// Journal is the port interface for decision persistence.
type Journal interface {
	RecordDecision(ctx context.Context, rec *Record) error
	RecordOutcome(ctx context.Context, decisionID string, o *decision.Outcome) error
	ListRecent(ctx context.Context, limit int) ([]Record, error)
}
