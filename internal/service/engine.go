// Package service implements Arbiter's application services around the
// decision domain core.
package service

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	arbiterotel "github.com/strategis-io/arbiter/internal/adapter/otel"
	"github.com/strategis-io/arbiter/internal/adapter/ws"
	"github.com/strategis-io/arbiter/internal/domain/decision"
	"github.com/strategis-io/arbiter/internal/domain/plan"
	"github.com/strategis-io/arbiter/internal/parallel"
	"github.com/strategis-io/arbiter/internal/port/journal"
	"github.com/strategis-io/arbiter/internal/port/messagequeue"
)

// riskCalibrationTolerance is the absolute error between expected and
// realized risk above which a calibration warning is logged.
const riskCalibrationTolerance = 0.3

// maxAlternatives caps the runner-up options returned with a result.
const maxAlternatives = 3

// DecisionEngine scores candidate options against constraints and weighted
// criteria, records every decision in an in-memory history, and learns from
// reported outcomes. All exported methods are safe for concurrent use.
type DecisionEngine struct {
	capability decision.Capability
	defaults   decision.Criteria
	pool       *parallel.Pool

	// Optional side channels. Failures on any of them are logged and never
	// affect the returned result.
	journal journal.Journal
	queue   messagequeue.Queue
	hub     *ws.Hub
	metrics *arbiterotel.Metrics

	mu            sync.RWMutex
	outcomes      map[string]*decision.Outcome
	confidenceSum float64
}

// EngineOptions carries the optional collaborators of a DecisionEngine.
// The zero value yields a standalone in-memory engine with default criteria.
type EngineOptions struct {
	// Criteria overrides the default weighting for calls that do not supply
	// their own. Nil means decision.DefaultCriteria.
	Criteria *decision.Criteria
	// EvalParallelism bounds concurrent option evaluations. Zero or negative
	// means 4.
	EvalParallelism int

	Journal journal.Journal
	Queue   messagequeue.Queue
	Hub     *ws.Hub
	Metrics *arbiterotel.Metrics
}

// NewDecisionEngine creates a DecisionEngine with the given capability
// descriptor. The capability is read-only for the engine's lifetime.
func NewDecisionEngine(capability decision.Capability, opts EngineOptions) *DecisionEngine {
	defaults := decision.DefaultCriteria()
	if opts.Criteria != nil {
		defaults = *opts.Criteria
	}
	par := opts.EvalParallelism
	if par < 1 {
		par = 4
	}
	return &DecisionEngine{
		capability: capability,
		defaults:   defaults,
		pool:       parallel.NewPool(par),
		journal:    opts.Journal,
		queue:      opts.Queue,
		hub:        opts.Hub,
		metrics:    opts.Metrics,
		outcomes:   make(map[string]*decision.Outcome),
	}
}

// Decide selects the best option in dctx under the given criteria (nil means
// the engine defaults). It returns a *decision.PolicyViolationError when the
// capability forbids unconstrained autonomous decisions, a
// *decision.NoViableOptionsError when filtering eliminates every candidate,
// and a *decision.ConfidenceTooLowError when the winner's confidence is
// under the caller's floor. Failed calls never write to history.
func (e *DecisionEngine) Decide(ctx context.Context, dctx decision.Context, criteria *decision.Criteria) (*decision.Result, error) {
	ctx, span := arbiterotel.StartDecisionSpan(ctx, len(dctx.AvailableOptions))
	defer span.End()

	cons := dctx.Constraints
	if !e.capability.CanMakeAutonomousDecisions && (cons == nil || cons.MinConfidence == nil) {
		e.metrics.RecordFailure(ctx, "policy_violation")
		return nil, &decision.PolicyViolationError{
			Reason: "autonomous decisions are not permitted without a minimum confidence constraint",
		}
	}

	crit := e.defaults
	if criteria != nil {
		crit = *criteria
	}

	viable := decision.FilterViable(dctx.AvailableOptions, cons)
	if len(viable) == 0 {
		e.metrics.RecordFailure(ctx, "no_viable_options")
		return nil, &decision.NoViableOptionsError{Candidates: len(dctx.AvailableOptions)}
	}

	evals, err := e.evaluateAll(ctx, viable, crit, dctx.HistoricalOutcomes)
	if err != nil {
		return nil, err
	}

	// Strictly greatest score wins; the first encountered takes ties.
	best := 0
	for i := 1; i < len(evals); i++ {
		if evals[i].Score > evals[best].Score {
			best = i
		}
	}
	winner := evals[best]

	if cons != nil && cons.MinConfidence != nil && winner.Confidence < *cons.MinConfidence {
		e.metrics.RecordFailure(ctx, "confidence_too_low")
		return nil, &decision.ConfidenceTooLowError{
			Confidence: winner.Confidence,
			Threshold:  *cons.MinConfidence,
		}
	}

	alternatives := rankAlternatives(evals, best)

	id := uuid.NewString()
	e.record(id, winner)

	result := &decision.Result{
		DecisionID:     id,
		SelectedOption: winner.Option,
		Confidence:     winner.Confidence,
		Reasoning:      winner.Reasoning,
		Alternatives:   alternatives,
		Timestamp:      time.Now().UTC(),
	}

	span.SetAttributes(arbiterotel.DecisionAttributes(id, winner.Option.ID, winner.Score, winner.Confidence)...)
	e.metrics.RecordDecision(ctx, winner.Score, winner.Confidence)
	e.announceDecision(ctx, result)

	return result, nil
}

// DecidePlanExecution turns a plan into a candidate option (benefit fixed at
// 0.7, risk and feasibility assessed from the plan's shape), adds a
// synthetic no-action option, and runs a default-criteria decision over
// those plus any options already in dctx.
func (e *DecisionEngine) DecidePlanExecution(ctx context.Context, p *plan.Plan, dctx decision.Context) (*decision.Result, error) {
	dur := p.EstimatedTotalDurationMS
	noActionDur := int64(0)

	options := make([]decision.Option, 0, len(dctx.AvailableOptions)+2)
	options = append(options,
		decision.Option{
			ID:                  "execute-plan:" + p.ID,
			Description:         "Execute plan: " + p.Goal,
			ExpectedBenefit:     0.7,
			Risk:                plan.AssessRisk(p),
			Feasibility:         plan.AssessFeasibility(p),
			EstimatedDurationMS: &dur,
		},
		decision.Option{
			ID:                  "no-action",
			Description:         "Take no action",
			ExpectedBenefit:     0,
			Risk:                0,
			Feasibility:         1,
			EstimatedDurationMS: &noActionDur,
		},
	)
	options = append(options, dctx.AvailableOptions...)
	dctx.AvailableOptions = options

	return e.Decide(ctx, dctx, nil)
}

// UpdateOutcome overwrites the recorded outcome stub for decisionID with the
// caller's actuals. Unknown ids are logged and ignored: outcome reporting is
// best-effort telemetry, not a safety-critical path.
func (e *DecisionEngine) UpdateOutcome(ctx context.Context, decisionID string, actual decision.Outcome) {
	e.mu.Lock()
	stored, ok := e.outcomes[decisionID]
	if !ok {
		e.mu.Unlock()
		slog.Warn("update outcome: unknown decision id", "decision_id", decisionID)
		return
	}
	stored.ActualBenefit = actual.ActualBenefit
	stored.ActualDurationMS = actual.ActualDurationMS
	stored.Success = actual.Success
	updated := *stored
	e.mu.Unlock()

	if e.capability.CanEvaluateRisk {
		expected := updated.SelectedOption.Risk
		realized := realizedRisk(updated.Success)
		if math.Abs(expected-realized) > riskCalibrationTolerance {
			// Recalibration hook: diagnostics only, no state change.
			slog.Warn("risk estimate diverged from outcome",
				"decision_id", decisionID,
				"expected_risk", expected,
				"realized_risk", realized,
			)
		}
	}

	e.metrics.RecordOutcome(ctx, updated.Success)
	e.announceOutcome(ctx, &updated)
}

// Stats aggregates the full outcome history. The zero value is returned
// before any decision has been recorded.
func (e *DecisionEngine) Stats() decision.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	n := len(e.outcomes)
	if n == 0 {
		return decision.Stats{}
	}

	successes := 0
	riskErr := 0.0
	for _, o := range e.outcomes {
		if o.Success {
			successes++
		}
		riskErr += math.Abs(realizedRisk(o.Success) - o.SelectedOption.Risk)
	}

	return decision.Stats{
		TotalDecisions:    n,
		SuccessRate:       float64(successes) / float64(n),
		AverageConfidence: e.confidenceSum / float64(n),
		RiskAccuracy:      1 - riskErr/float64(n),
	}
}

// evaluateAll scores every viable option concurrently through the shared
// pool. Evaluations land at their input index so tie-breaking stays
// deterministic regardless of completion order.
func (e *DecisionEngine) evaluateAll(ctx context.Context, viable []decision.Option, crit decision.Criteria, history []decision.Outcome) ([]decision.Evaluation, error) {
	evals := make([]decision.Evaluation, len(viable))
	errs := make([]error, len(viable))

	var wg sync.WaitGroup
	for i := range viable {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = e.pool.Run(ctx, func() error {
				evals[i] = decision.Evaluate(viable[i], crit, history, e.capability)
				return nil
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return evals, nil
}

// record stores the outcome stub for a fresh decision and folds the winner's
// confidence into the running mean.
func (e *DecisionEngine) record(decisionID string, winner decision.Evaluation) {
	stub := &decision.Outcome{
		DecisionID:     decisionID,
		SelectedOption: winner.Option,
	}
	e.mu.Lock()
	e.outcomes[decisionID] = stub
	e.confidenceSum += winner.Confidence
	e.mu.Unlock()
}

// rankAlternatives returns up to maxAlternatives runner-up options, best
// first, never including the winner.
func rankAlternatives(evals []decision.Evaluation, winner int) []decision.Option {
	rest := make([]decision.Evaluation, 0, len(evals)-1)
	for i := range evals {
		if i != winner {
			rest = append(rest, evals[i])
		}
	}
	sort.SliceStable(rest, func(a, b int) bool { return rest[a].Score > rest[b].Score })
	if len(rest) > maxAlternatives {
		rest = rest[:maxAlternatives]
	}
	alts := make([]decision.Option, len(rest))
	for i := range rest {
		alts[i] = rest[i].Option
	}
	return alts
}

// realizedRisk is the binary risk actually observed for an outcome: 0 when
// the action succeeded, 1 when it did not.
func realizedRisk(success bool) float64 {
	if success {
		return 0
	}
	return 1
}
