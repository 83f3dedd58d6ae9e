// Package plan defines the execution-plan model the engine can decide over,
// plus the risk and feasibility assessments that turn a plan into a
// decision option.
package plan

// StepStatus is the lifecycle state of a single plan step.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusFailed     StepStatus = "failed"
)

// Step is one unit of work inside a plan.
type Step struct {
	ID                  string     `json:"id"`
	Description         string     `json:"description,omitempty"`
	Status              StepStatus `json:"status"`
	EstimatedDurationMS int64      `json:"estimated_duration_ms,omitempty"`
}

// Plan is a sequence of steps proposed by an external planner.
type Plan struct {
	ID                       string `json:"id"`
	Goal                     string `json:"goal,omitempty"`
	Steps                    []Step `json:"steps"`
	EstimatedTotalDurationMS int64  `json:"estimated_total_duration_ms"`
}

// CountByStatus returns the number of steps in the given status.
func (p *Plan) CountByStatus(status StepStatus) int {
	n := 0
	for i := range p.Steps {
		if p.Steps[i].Status == status {
			n++
		}
	}
	return n
}
