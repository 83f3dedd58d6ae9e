package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/strategis-io/arbiter/internal/domain/decision"
	"github.com/strategis-io/arbiter/internal/domain/plan"
)

func autonomousCapability() decision.Capability {
	return decision.Capability{
		CanMakeAutonomousDecisions: true,
		CanEvaluateRisk:            true,
		MaxDecisionComplexity:      5,
	}
}

func newEngine(t *testing.T) *DecisionEngine {
	t.Helper()
	return NewDecisionEngine(autonomousCapability(), EngineOptions{})
}

func f64(v float64) *float64 { return &v }

func ms(v int64) *int64 { return &v }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDecideSelectsBestOption(t *testing.T) {
	e := newEngine(t)

	dctx := decision.Context{
		AvailableOptions: []decision.Option{
			{ID: "risky", ExpectedBenefit: 0.5, Risk: 0.8, Feasibility: 0.5},
			{ID: "solid", ExpectedBenefit: 0.9, Risk: 0.1, Feasibility: 0.9, EstimatedDurationMS: ms(1000)},
			{ID: "meh", ExpectedBenefit: 0.3, Risk: 0.3, Feasibility: 0.6},
		},
	}
	res, err := e.Decide(context.Background(), dctx, nil)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if res.SelectedOption.ID != "solid" {
		t.Errorf("selected %q, want solid", res.SelectedOption.ID)
	}
	if res.DecisionID == "" {
		t.Error("decision id is empty")
	}
	if res.Confidence <= 0 || res.Confidence > 1 {
		t.Errorf("confidence %v out of range", res.Confidence)
	}
	if res.Reasoning == "" {
		t.Error("reasoning is empty")
	}
	if len(res.Alternatives) != 2 {
		t.Fatalf("alternatives = %d, want 2", len(res.Alternatives))
	}
	for _, alt := range res.Alternatives {
		if alt.ID == "solid" {
			t.Error("winner listed among alternatives")
		}
	}
}

func TestDecideFirstWinsOnTie(t *testing.T) {
	e := newEngine(t)

	dctx := decision.Context{
		AvailableOptions: []decision.Option{
			{ID: "first", ExpectedBenefit: 0.5, Risk: 0.5, Feasibility: 0.5},
			{ID: "second", ExpectedBenefit: 0.5, Risk: 0.5, Feasibility: 0.5},
		},
	}
	for range 10 {
		res, err := e.Decide(context.Background(), dctx, nil)
		if err != nil {
			t.Fatalf("Decide failed: %v", err)
		}
		if res.SelectedOption.ID != "first" {
			t.Fatalf("tie broke to %q, want first", res.SelectedOption.ID)
		}
	}
}

func TestDecidePolicyViolation(t *testing.T) {
	e := NewDecisionEngine(decision.Capability{CanMakeAutonomousDecisions: false}, EngineOptions{})

	dctx := decision.Context{
		AvailableOptions: []decision.Option{
			{ID: "a", ExpectedBenefit: 0.5, Risk: 0.1, Feasibility: 0.9},
		},
	}
	_, err := e.Decide(context.Background(), dctx, nil)
	var pv *decision.PolicyViolationError
	if !errors.As(err, &pv) {
		t.Fatalf("err = %v, want PolicyViolationError", err)
	}

	// A minimum confidence constraint acts as the required safety rail.
	dctx.Constraints = &decision.Constraints{MinConfidence: f64(0.1)}
	if _, err := e.Decide(context.Background(), dctx, nil); err != nil {
		t.Fatalf("constrained decision failed: %v", err)
	}
}

func TestDecideNoViableOptions(t *testing.T) {
	e := newEngine(t)

	dctx := decision.Context{
		AvailableOptions: []decision.Option{
			{ID: "a", ExpectedBenefit: 0.9, Risk: 0.9, Feasibility: 0.9},
			{ID: "b", ExpectedBenefit: 0.8, Risk: 0.6, Feasibility: 0.9},
		},
		Constraints: &decision.Constraints{MaxRisk: f64(0.05)},
	}
	_, err := e.Decide(context.Background(), dctx, nil)
	var nv *decision.NoViableOptionsError
	if !errors.As(err, &nv) {
		t.Fatalf("err = %v, want NoViableOptionsError", err)
	}
	if nv.Candidates != 2 {
		t.Errorf("candidates = %d, want 2", nv.Candidates)
	}
	if e.Stats().TotalDecisions != 0 {
		t.Error("failed decision was recorded")
	}
}

func TestDecideConfidenceTooLow(t *testing.T) {
	e := newEngine(t)

	dctx := decision.Context{
		AvailableOptions: []decision.Option{
			{ID: "a", ExpectedBenefit: 0.6, Risk: 0.5, Feasibility: 0.5},
		},
		Constraints: &decision.Constraints{MinConfidence: f64(0.99)},
	}
	_, err := e.Decide(context.Background(), dctx, nil)
	var ct *decision.ConfidenceTooLowError
	if !errors.As(err, &ct) {
		t.Fatalf("err = %v, want ConfidenceTooLowError", err)
	}
	if ct.Threshold != 0.99 {
		t.Errorf("threshold = %v, want 0.99", ct.Threshold)
	}
	if ct.Confidence >= ct.Threshold {
		t.Errorf("confidence %v not below threshold", ct.Confidence)
	}
}

func TestDecideTimeLimitSparesUnestimatedOptions(t *testing.T) {
	e := newEngine(t)

	dctx := decision.Context{
		AvailableOptions: []decision.Option{
			{ID: "slow", ExpectedBenefit: 0.9, Risk: 0.1, Feasibility: 0.9, EstimatedDurationMS: ms(10_000)},
			{ID: "unestimated", ExpectedBenefit: 0.4, Risk: 0.2, Feasibility: 0.7},
		},
		Constraints: &decision.Constraints{TimeLimitMS: ms(5000)},
	}
	res, err := e.Decide(context.Background(), dctx, nil)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if res.SelectedOption.ID != "unestimated" {
		t.Errorf("selected %q, want unestimated", res.SelectedOption.ID)
	}
}

func TestDecideAlternativesCapped(t *testing.T) {
	e := newEngine(t)

	dctx := decision.Context{
		AvailableOptions: []decision.Option{
			{ID: "a", ExpectedBenefit: 0.9, Risk: 0.1, Feasibility: 0.9},
			{ID: "b", ExpectedBenefit: 0.8, Risk: 0.1, Feasibility: 0.9},
			{ID: "c", ExpectedBenefit: 0.7, Risk: 0.1, Feasibility: 0.9},
			{ID: "d", ExpectedBenefit: 0.6, Risk: 0.1, Feasibility: 0.9},
			{ID: "e", ExpectedBenefit: 0.5, Risk: 0.1, Feasibility: 0.9},
			{ID: "f", ExpectedBenefit: 0.4, Risk: 0.1, Feasibility: 0.9},
		},
	}
	res, err := e.Decide(context.Background(), dctx, nil)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if len(res.Alternatives) != 3 {
		t.Fatalf("alternatives = %d, want 3", len(res.Alternatives))
	}
	want := []string{"b", "c", "d"}
	for i, alt := range res.Alternatives {
		if alt.ID != want[i] {
			t.Errorf("alternatives[%d] = %q, want %q", i, alt.ID, want[i])
		}
	}
}

func TestDecideUsesHistory(t *testing.T) {
	e := newEngine(t)

	opt := decision.Option{ID: "a", ExpectedBenefit: 0.8, Risk: 0.2, Feasibility: 0.8}
	dctx := decision.Context{
		AvailableOptions: []decision.Option{opt},
		HistoricalOutcomes: []decision.Outcome{
			{SelectedOption: opt, Success: true},
			{SelectedOption: opt, Success: true},
		},
	}
	res, err := e.Decide(context.Background(), dctx, nil)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if !strings.Contains(res.Reasoning, "history") {
		t.Errorf("reasoning %q does not mention history", res.Reasoning)
	}
}

func TestDecidePlanExecution(t *testing.T) {
	e := newEngine(t)

	p := &plan.Plan{
		ID:   "p1",
		Goal: "migrate the database",
		Steps: []plan.Step{
			{ID: "s1", Status: plan.StepStatusCompleted},
			{ID: "s2", Status: plan.StepStatusCompleted},
			{ID: "s3", Status: plan.StepStatusCompleted},
			{ID: "s4", Status: plan.StepStatusCompleted},
			{ID: "s5", Status: plan.StepStatusCompleted},
		},
	}
	res, err := e.DecidePlanExecution(context.Background(), p, decision.Context{})
	if err != nil {
		t.Fatalf("DecidePlanExecution failed: %v", err)
	}
	if res.SelectedOption.ID != "execute-plan:p1" {
		t.Errorf("selected %q, want execute-plan:p1", res.SelectedOption.ID)
	}
	if res.SelectedOption.Risk != 0.25 {
		t.Errorf("plan risk = %v, want 0.25", res.SelectedOption.Risk)
	}
	if res.SelectedOption.Feasibility != 1 {
		t.Errorf("plan feasibility = %v, want 1", res.SelectedOption.Feasibility)
	}
}

func TestDecidePlanExecutionPrefersNoActionForBrokenPlan(t *testing.T) {
	e := newEngine(t)

	steps := make([]plan.Step, 0, 10)
	for i := range 4 {
		steps = append(steps, plan.Step{ID: string(rune('a' + i)), Status: plan.StepStatusFailed})
	}
	for i := range 6 {
		steps = append(steps, plan.Step{ID: string(rune('e' + i)), Status: plan.StepStatusPending})
	}
	p := &plan.Plan{ID: "p2", Goal: "retry everything", Steps: steps}

	res, err := e.DecidePlanExecution(context.Background(), p, decision.Context{})
	if err != nil {
		t.Fatalf("DecidePlanExecution failed: %v", err)
	}
	if res.SelectedOption.ID != "no-action" {
		t.Errorf("selected %q, want no-action", res.SelectedOption.ID)
	}
}

func TestUpdateOutcomeAndStats(t *testing.T) {
	e := newEngine(t)

	dctx := decision.Context{
		AvailableOptions: []decision.Option{
			{ID: "a", ExpectedBenefit: 0.9, Risk: 0.1, Feasibility: 0.9, EstimatedDurationMS: ms(1000)},
		},
	}
	res, err := e.Decide(context.Background(), dctx, nil)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	e.UpdateOutcome(context.Background(), res.DecisionID, decision.Outcome{
		ActualBenefit:    0.85,
		ActualDurationMS: 1200,
		Success:          true,
	})

	stats := e.Stats()
	if stats.TotalDecisions != 1 {
		t.Fatalf("total = %d, want 1", stats.TotalDecisions)
	}
	if stats.SuccessRate != 1 {
		t.Errorf("success rate = %v, want 1", stats.SuccessRate)
	}
	if !almostEqual(stats.AverageConfidence, res.Confidence) {
		t.Errorf("average confidence = %v, want %v", stats.AverageConfidence, res.Confidence)
	}
	// A successful outcome realizes risk 0; the option expected 0.1.
	if !almostEqual(stats.RiskAccuracy, 0.9) {
		t.Errorf("risk accuracy = %v, want 0.9", stats.RiskAccuracy)
	}
}

func TestUpdateOutcomeUnknownIDIsNoop(t *testing.T) {
	e := newEngine(t)

	e.UpdateOutcome(context.Background(), "no-such-id", decision.Outcome{Success: true})

	if stats := e.Stats(); stats != (decision.Stats{}) {
		t.Errorf("stats changed after unknown outcome: %+v", stats)
	}
}

func TestStatsAveragesConfidenceAcrossDecisions(t *testing.T) {
	e := newEngine(t)

	strong := decision.Context{
		AvailableOptions: []decision.Option{
			{ID: "strong", ExpectedBenefit: 0.9, Risk: 0.05, Feasibility: 0.95},
		},
	}
	weak := decision.Context{
		AvailableOptions: []decision.Option{
			{ID: "weak", ExpectedBenefit: 0.4, Risk: 0.6, Feasibility: 0.4},
		},
	}
	r1, err := e.Decide(context.Background(), strong, nil)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := e.Decide(context.Background(), weak, nil)
	if err != nil {
		t.Fatal(err)
	}

	stats := e.Stats()
	if stats.TotalDecisions != 2 {
		t.Fatalf("total = %d, want 2", stats.TotalDecisions)
	}
	want := (r1.Confidence + r2.Confidence) / 2
	if !almostEqual(stats.AverageConfidence, want) {
		t.Errorf("average confidence = %v, want %v", stats.AverageConfidence, want)
	}
}
