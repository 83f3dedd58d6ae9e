package decision

import (
	"fmt"
	"math"
	"strings"
)

const (
	// similarityThreshold is the minimum similarity for a historical outcome
	// to count toward an option's success-rate adjustment.
	similarityThreshold = 0.7

	// Score multipliers applied when the similar-outcome success rate is
	// decisively good (> 0.8) or decisively bad (< 0.3).
	historyBoost   = 1.2
	historyPenalty = 0.8

	// speedScaleMS normalizes durations for the speed score: one minute of
	// estimated duration halves the speed factor.
	speedScaleMS = 60_000
)

// Evaluation is the scored form of a single option.
type Evaluation struct {
	Option     Option
	Score      float64
	Confidence float64
	Reasoning  string
}

// FilterViable drops options that violate the risk or time constraints.
// Options without an estimated duration are never excluded by the time limit.
func FilterViable(options []Option, c *Constraints) []Option {
	if c == nil {
		return options
	}
	viable := make([]Option, 0, len(options))
	for _, opt := range options {
		if c.MaxRisk != nil && opt.Risk > *c.MaxRisk {
			continue
		}
		if c.TimeLimitMS != nil && opt.EstimatedDurationMS != nil && *opt.EstimatedDurationMS > *c.TimeLimitMS {
			continue
		}
		viable = append(viable, opt)
	}
	return viable
}

// Evaluate scores a single option against the criteria, adjusts the score by
// similar historical outcomes, and estimates confidence. It reads only its
// arguments and is safe to call concurrently for independent options.
func Evaluate(opt Option, crit Criteria, history []Outcome, capability Capability) Evaluation {
	benefitScore := opt.ExpectedBenefit * crit.BenefitWeight
	riskScore := (1 - opt.Risk) * crit.RiskWeight
	feasibilityScore := opt.Feasibility * crit.FeasibilityWeight

	speedScore := 0.0
	if opt.EstimatedDurationMS != nil && crit.SpeedWeight > 0 {
		speedScore = (1 / (1 + float64(*opt.EstimatedDurationMS)/speedScaleMS)) * crit.SpeedWeight
	}

	raw := benefitScore + riskScore + feasibilityScore + speedScore

	multiplier, similar, successRate := historicalMultiplier(opt, history)
	score := clamp01(raw * multiplier)

	var b strings.Builder
	fmt.Fprintf(&b, "benefit %.1f%%, risk-adjusted %.1f%%, feasibility %.1f%%",
		benefitScore*100, riskScore*100, feasibilityScore*100)
	if opt.EstimatedDurationMS != nil && crit.SpeedWeight > 0 {
		fmt.Fprintf(&b, ", speed %.1f%% (%dms)", speedScore*100, *opt.EstimatedDurationMS)
	}
	if multiplier != 1.0 {
		fmt.Fprintf(&b, "; history x%.1f (%d similar, %.0f%% success)",
			multiplier, similar, successRate*100)
	}

	return Evaluation{
		Option:     opt,
		Score:      score,
		Confidence: confidence(opt, len(history), capability),
		Reasoning:  b.String(),
	}
}

// historicalMultiplier returns the score multiplier derived from outcomes
// whose selected option is similar to opt, along with the number of similar
// outcomes and their success rate. The multiplier is exactly one of
// historyPenalty, 1.0, or historyBoost.
func historicalMultiplier(opt Option, history []Outcome) (multiplier float64, similar int, successRate float64) {
	successes := 0
	for i := range history {
		if Similarity(opt, history[i].SelectedOption) <= similarityThreshold {
			continue
		}
		similar++
		if history[i].Success {
			successes++
		}
	}
	if similar == 0 {
		return 1.0, 0, 0
	}
	successRate = float64(successes) / float64(similar)
	switch {
	case successRate > 0.8:
		return historyBoost, similar, successRate
	case successRate < 0.3:
		return historyPenalty, similar, successRate
	default:
		return 1.0, similar, successRate
	}
}

// Similarity measures how close two options are, as one minus the averaged
// absolute difference across benefit, risk, and feasibility. 1 is identical.
func Similarity(a, b Option) float64 {
	return 1 - (math.Abs(a.ExpectedBenefit-b.ExpectedBenefit)+
		math.Abs(a.Risk-b.Risk)+
		math.Abs(a.Feasibility-b.Feasibility))/3
}

// confidence estimates the engine's certainty in an evaluation, independent
// of the option's score. Base 0.5, raised for simple options, corroborating
// history, and a capability rated for complex decisions.
func confidence(opt Option, historyLen int, capability Capability) float64 {
	complexity := (opt.Risk + (1 - opt.Feasibility)) / 2
	c := 0.5
	c += (1 - complexity) * 0.3
	c += math.Min(0.2, 0.02*float64(historyLen))
	if capability.MaxDecisionComplexity > 5 {
		c += 0.1
	}
	return clamp01(c)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
