package messagequeue

import "time"

// Subjects for decision lifecycle events. OutcomeReport is inbound: external
// executors publish there to feed actuals back into the engine.
const (
	SubjectDecisionMade    = "decisions.made"
	SubjectOutcomeRecorded = "decisions.outcome.recorded"
	SubjectOutcomeReport   = "decisions.outcome.report"
)

// DecisionMadePayload is published on SubjectDecisionMade after every
// successful decision.
type DecisionMadePayload struct {
	DecisionID string    `json:"decision_id"`
	OptionID   string    `json:"option_id"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// OutcomeReportPayload is the inbound shape on SubjectOutcomeReport.
type OutcomeReportPayload struct {
	DecisionID       string  `json:"decision_id"`
	ActualBenefit    float64 `json:"actual_benefit"`
	ActualDurationMS int64   `json:"actual_duration_ms"`
	Success          bool    `json:"success"`
}

// OutcomeRecordedPayload is published on SubjectOutcomeRecorded after an
// outcome has been applied to the engine's history.
type OutcomeRecordedPayload struct {
	DecisionID       string  `json:"decision_id"`
	ActualBenefit    float64 `json:"actual_benefit"`
	ActualDurationMS int64   `json:"actual_duration_ms"`
	Success          bool    `json:"success"`
}
