package plan

import "math"

// AssessRisk estimates the risk of executing a plan from its shape alone:
// step count contributes up to 0.3, each failed step adds 0.1, and total
// estimated duration contributes up to 0.2 (saturating at one hour).
// The result is clamped to [0,1].
func AssessRisk(p *Plan) float64 {
	risk := math.Min(0.3, float64(len(p.Steps))*0.05)
	risk += float64(p.CountByStatus(StepStatusFailed)) * 0.1
	risk += math.Min(0.2, float64(p.EstimatedTotalDurationMS)/3_600_000)
	return clamp01(risk)
}

// AssessFeasibility estimates how achievable a plan is. It starts at 1,
// subtracts 0.1 per pending step, and is raised (never lowered) to the
// completed-step ratio when that is higher. The result is clamped to [0,1].
func AssessFeasibility(p *Plan) float64 {
	f := 1.0 - 0.1*float64(p.CountByStatus(StepStatusPending))
	if total := len(p.Steps); total > 0 {
		if ratio := float64(p.CountByStatus(StepStatusCompleted)) / float64(total); ratio > f {
			f = ratio
		}
	}
	return clamp01(f)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
