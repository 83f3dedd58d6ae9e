package decision

import "fmt"

// PolicyViolationError is returned when an autonomous decision is attempted
// without permission and without a minimum-confidence floor to bound it.
type PolicyViolationError struct {
	Reason string
}

func (e *PolicyViolationError) Error() string {
	return "policy violation: " + e.Reason
}

// NoViableOptionsError is returned when constraint filtering eliminates
// every candidate. The caller may relax constraints and retry.
type NoViableOptionsError struct {
	Candidates int
}

func (e *NoViableOptionsError) Error() string {
	return fmt.Sprintf("no viable options: all %d candidates eliminated by constraints", e.Candidates)
}

// ConfidenceTooLowError is returned when the best option's confidence falls
// under the caller's floor. It carries both values so the caller can decide
// whether to proceed, relax the floor, or abstain.
type ConfidenceTooLowError struct {
	Confidence float64
	Threshold  float64
}

func (e *ConfidenceTooLowError) Error() string {
	return fmt.Sprintf("confidence %.2f below required threshold %.2f", e.Confidence, e.Threshold)
}
