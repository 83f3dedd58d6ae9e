package decision

import (
	"math"
	"strings"
	"testing"
)

func ms(v int64) *int64 { return &v }

func f64(v float64) *float64 { return &v }

func TestEvaluateScoreComponents(t *testing.T) {
	opt := Option{ID: "a", ExpectedBenefit: 0.9, Risk: 0.1, Feasibility: 0.9, EstimatedDurationMS: ms(1000)}
	ev := Evaluate(opt, DefaultCriteria(), nil, Capability{})

	// 0.9*0.4 + 0.9*0.3 + 0.9*0.2 + (1/(1+1000/60000))*0.1
	want := 0.36 + 0.27 + 0.18 + (1/(1+1000.0/60000.0))*0.1
	if math.Abs(ev.Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", ev.Score, want)
	}
	if ev.Score < 0 || ev.Score > 1 {
		t.Errorf("score %v out of [0,1]", ev.Score)
	}
}

func TestEvaluateNoDurationNoSpeedScore(t *testing.T) {
	opt := Option{ID: "a", ExpectedBenefit: 1, Risk: 0, Feasibility: 1}
	ev := Evaluate(opt, DefaultCriteria(), nil, Capability{})

	want := 0.4 + 0.3 + 0.2
	if math.Abs(ev.Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v (no speed contribution)", ev.Score, want)
	}
	if strings.Contains(ev.Reasoning, "speed") {
		t.Errorf("reasoning mentions speed for option without duration: %q", ev.Reasoning)
	}
}

func TestEvaluateScoreClamped(t *testing.T) {
	// Benefit beyond [0,1] plus a history boost could push the raw score
	// past 1; the final score must still be clamped.
	opt := Option{ID: "a", ExpectedBenefit: 2.5, Risk: 0, Feasibility: 1}
	history := []Outcome{
		{SelectedOption: opt, Success: true},
		{SelectedOption: opt, Success: true},
	}
	ev := Evaluate(opt, DefaultCriteria(), history, Capability{})
	if ev.Score != 1 {
		t.Errorf("score = %v, want clamped to 1", ev.Score)
	}
}

func TestHistoricalMultiplierExactValues(t *testing.T) {
	base := Option{ID: "a", ExpectedBenefit: 0.5, Risk: 0.5, Feasibility: 0.5}

	tests := []struct {
		name      string
		successes int
		failures  int
		want      float64
	}{
		{"all successes boosts", 5, 0, historyBoost},
		{"all failures penalizes", 0, 5, historyPenalty},
		{"middling rate is neutral", 1, 1, 1.0},
		{"no similar outcomes is neutral", 0, 0, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var history []Outcome
			for range tt.successes {
				history = append(history, Outcome{SelectedOption: base, Success: true})
			}
			for range tt.failures {
				history = append(history, Outcome{SelectedOption: base, Success: false})
			}
			got, _, _ := historicalMultiplier(base, history)
			if got != tt.want {
				t.Errorf("multiplier = %v, want %v", got, tt.want)
			}
			if got != historyPenalty && got != 1.0 && got != historyBoost {
				t.Errorf("multiplier %v outside the allowed set", got)
			}
		})
	}
}

func TestHistoricalMultiplierIgnoresDissimilarOutcomes(t *testing.T) {
	opt := Option{ID: "a", ExpectedBenefit: 0.9, Risk: 0.1, Feasibility: 0.9}
	// Similarity = 1 - (0.8+0.8+0.8)/3 = 0.2, well under the threshold.
	far := Option{ID: "b", ExpectedBenefit: 0.1, Risk: 0.9, Feasibility: 0.1}
	history := []Outcome{
		{SelectedOption: far, Success: false},
		{SelectedOption: far, Success: false},
	}
	mult, similar, _ := historicalMultiplier(opt, history)
	if similar != 0 {
		t.Errorf("similar = %d, want 0", similar)
	}
	if mult != 1.0 {
		t.Errorf("multiplier = %v, want 1.0", mult)
	}
}

func TestSimilarity(t *testing.T) {
	a := Option{ExpectedBenefit: 0.9, Risk: 0.1, Feasibility: 0.9}
	if got := Similarity(a, a); got != 1 {
		t.Errorf("self-similarity = %v, want 1", got)
	}

	b := Option{ExpectedBenefit: 0.6, Risk: 0.4, Feasibility: 0.6}
	want := 1 - (0.3+0.3+0.3)/3
	if got := Similarity(a, b); math.Abs(got-want) > 1e-9 {
		t.Errorf("similarity = %v, want %v", got, want)
	}
}

func TestConfidenceBounds(t *testing.T) {
	tests := []struct {
		name       string
		opt        Option
		historyLen int
		capability Capability
	}{
		{"simple option", Option{Risk: 0, Feasibility: 1}, 0, Capability{}},
		{"hard option", Option{Risk: 1, Feasibility: 0}, 0, Capability{}},
		{"everything maxed", Option{Risk: 0, Feasibility: 1}, 100, Capability{MaxDecisionComplexity: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := confidence(tt.opt, tt.historyLen, tt.capability)
			if c < 0 || c > 1 {
				t.Errorf("confidence %v out of [0,1]", c)
			}
		})
	}
}

func TestConfidenceModel(t *testing.T) {
	opt := Option{Risk: 0.2, Feasibility: 0.8}
	// complexity = (0.2 + 0.2)/2 = 0.2
	want := 0.5 + 0.8*0.3 + 0.02*3
	if got := confidence(opt, 3, Capability{}); math.Abs(got-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", got, want)
	}

	// History bonus saturates at 0.2; complexity rating adds 0.1.
	hard := Option{Risk: 0.6, Feasibility: 0.5}
	// complexity = (0.6 + 0.5)/2 = 0.55
	want = 0.5 + 0.45*0.3 + 0.2 + 0.1
	if got := confidence(hard, 50, Capability{MaxDecisionComplexity: 6}); math.Abs(got-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", got, want)
	}

	// An easy option with every bonus would sum past 1; the result clamps.
	if got := confidence(opt, 50, Capability{MaxDecisionComplexity: 6}); got != 1 {
		t.Errorf("confidence = %v, want clamped to 1", got)
	}
}

func TestFilterViable(t *testing.T) {
	options := []Option{
		{ID: "low-risk", Risk: 0.1, EstimatedDurationMS: ms(1000)},
		{ID: "high-risk", Risk: 0.9, EstimatedDurationMS: ms(1000)},
		{ID: "slow", Risk: 0.1, EstimatedDurationMS: ms(120_000)},
		{ID: "no-duration", Risk: 0.1},
	}

	t.Run("nil constraints keep everything", func(t *testing.T) {
		if got := FilterViable(options, nil); len(got) != len(options) {
			t.Errorf("got %d options, want %d", len(got), len(options))
		}
	})

	t.Run("max risk drops risky options", func(t *testing.T) {
		got := FilterViable(options, &Constraints{MaxRisk: f64(0.5)})
		for _, o := range got {
			if o.Risk > 0.5 {
				t.Errorf("option %s exceeds max risk", o.ID)
			}
		}
		if len(got) != 3 {
			t.Errorf("got %d options, want 3", len(got))
		}
	})

	t.Run("time limit spares options without a duration", func(t *testing.T) {
		got := FilterViable(options, &Constraints{TimeLimitMS: ms(60_000)})
		ids := make(map[string]bool, len(got))
		for _, o := range got {
			ids[o.ID] = true
		}
		if ids["slow"] {
			t.Error("slow option should be filtered by the time limit")
		}
		if !ids["no-duration"] {
			t.Error("option without a duration must never be excluded by the time limit")
		}
	})
}
