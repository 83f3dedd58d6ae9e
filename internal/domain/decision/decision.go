// Package decision defines the domain model for Arbiter's decision core:
// candidate options, weighted scoring criteria, outcome history, and the
// pure evaluation math that ranks options and estimates confidence.
package decision

import (
	"encoding/json"
	"time"
)

// Option is a candidate action presented to the engine. ExpectedBenefit,
// Risk, and Feasibility are normalized to [0,1]. Options are immutable once
// submitted; the engine never writes to them.
type Option struct {
	ID              string  `json:"id"`
	Description     string  `json:"description,omitempty"`
	ExpectedBenefit float64 `json:"expected_benefit"`
	Risk            float64 `json:"risk"`
	Feasibility     float64 `json:"feasibility"`
	// EstimatedDurationMS is optional. Options without a duration are never
	// excluded by a time limit and earn no speed score.
	EstimatedDurationMS *int64 `json:"estimated_duration_ms,omitempty"`
	// Metadata is an opaque payload carried through to the result untouched.
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Constraints narrows the viable option set for a single decision.
// All fields are optional; nil means unconstrained.
type Constraints struct {
	MaxRisk       *float64 `json:"max_risk,omitempty"`
	MinConfidence *float64 `json:"min_confidence,omitempty"`
	TimeLimitMS   *int64   `json:"time_limit_ms,omitempty"`
}

// Context is the full input to a single decision call.
// HistoricalOutcomes is supplied by the caller for this decision only; the
// engine does not fold its own history in unless the caller includes it.
type Context struct {
	// CurrentState is opaque to the engine and carried for callers only.
	CurrentState       json.RawMessage `json:"current_state,omitempty"`
	AvailableOptions   []Option        `json:"available_options"`
	Constraints        *Constraints    `json:"constraints,omitempty"`
	HistoricalOutcomes []Outcome       `json:"historical_outcomes,omitempty"`
}

// Outcome is the ground-truth result of a previously selected option.
// The engine creates it with zeroed actuals at decision time and overwrites
// it exactly once when the caller reports what actually happened.
type Outcome struct {
	DecisionID       string  `json:"decision_id"`
	SelectedOption   Option  `json:"selected_option"`
	ActualBenefit    float64 `json:"actual_benefit"`
	ActualDurationMS int64   `json:"actual_duration_ms"`
	Success          bool    `json:"success"`
}

// Criteria is the weighting scheme over benefit, risk, feasibility, and
// speed. Weights are non-negative and expected to sum to 1.0 (not enforced).
type Criteria struct {
	BenefitWeight     float64 `json:"benefit_weight"`
	RiskWeight        float64 `json:"risk_weight"`
	FeasibilityWeight float64 `json:"feasibility_weight"`
	SpeedWeight       float64 `json:"speed_weight"`
}

// DefaultCriteria returns the engine's default weighting.
func DefaultCriteria() Criteria {
	return Criteria{
		BenefitWeight:     0.4,
		RiskWeight:        0.3,
		FeasibilityWeight: 0.2,
		SpeedWeight:       0.1,
	}
}

// Result is the outcome of a decision call. DecisionID correlates the result
// with the engine's recorded outcome stub so callers can report actuals later.
type Result struct {
	DecisionID     string    `json:"decision_id"`
	SelectedOption Option    `json:"selected_option"`
	Confidence     float64   `json:"confidence"`
	Reasoning      string    `json:"reasoning"`
	Alternatives   []Option  `json:"alternatives,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Capability describes what the surrounding agent is permitted to decide
// autonomously. It is injected at engine construction and read-only after.
type Capability struct {
	CanMakeAutonomousDecisions bool `json:"can_make_autonomous_decisions" yaml:"can_make_autonomous_decisions"`
	CanEvaluateRisk            bool `json:"can_evaluate_risk" yaml:"can_evaluate_risk"`
	MaxDecisionComplexity      int  `json:"max_decision_complexity" yaml:"max_decision_complexity"`
}

// Stats is an aggregate view over the engine's full outcome history.
type Stats struct {
	TotalDecisions    int     `json:"total_decisions"`
	SuccessRate       float64 `json:"success_rate"`
	AverageConfidence float64 `json:"average_confidence"`
	RiskAccuracy      float64 `json:"risk_accuracy"`
}
