package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/strategis-io/arbiter/internal/adapter/ws"
	"github.com/strategis-io/arbiter/internal/domain/decision"
	"github.com/strategis-io/arbiter/internal/port/journal"
	"github.com/strategis-io/arbiter/internal/port/messagequeue"
)

// announceDecision fans a fresh decision out to the journal, the message
// queue, and the websocket hub. Every path is best-effort.
func (e *DecisionEngine) announceDecision(ctx context.Context, res *decision.Result) {
	if e.journal != nil {
		rec := &journal.Record{
			DecisionID:     res.DecisionID,
			SelectedOption: res.SelectedOption,
			Confidence:     res.Confidence,
			Reasoning:      res.Reasoning,
			Alternatives:   res.Alternatives,
			CreatedAt:      res.Timestamp,
		}
		if err := e.journal.RecordDecision(ctx, rec); err != nil {
			slog.Error("journal decision", "decision_id", res.DecisionID, "error", err)
		}
	}

	if e.queue != nil {
		payload := messagequeue.DecisionMadePayload{
			DecisionID: res.DecisionID,
			OptionID:   res.SelectedOption.ID,
			Confidence: res.Confidence,
			Timestamp:  res.Timestamp,
		}
		e.publish(ctx, messagequeue.SubjectDecisionMade, payload)
	}

	if e.hub != nil {
		e.hub.BroadcastEvent(ctx, ws.EventDecisionMade, ws.DecisionMadeEvent{
			DecisionID: res.DecisionID,
			OptionID:   res.SelectedOption.ID,
			Confidence: res.Confidence,
			Reasoning:  res.Reasoning,
		})
	}
}

// announceOutcome fans a recorded outcome out to the journal, the message
// queue, and the websocket hub. Every path is best-effort.
func (e *DecisionEngine) announceOutcome(ctx context.Context, o *decision.Outcome) {
	if e.journal != nil {
		if err := e.journal.RecordOutcome(ctx, o.DecisionID, o); err != nil {
			slog.Error("journal outcome", "decision_id", o.DecisionID, "error", err)
		}
	}

	if e.queue != nil {
		payload := messagequeue.OutcomeRecordedPayload{
			DecisionID:       o.DecisionID,
			ActualBenefit:    o.ActualBenefit,
			ActualDurationMS: o.ActualDurationMS,
			Success:          o.Success,
		}
		e.publish(ctx, messagequeue.SubjectOutcomeRecorded, payload)
	}

	if e.hub != nil {
		e.hub.BroadcastEvent(ctx, ws.EventOutcomeRecorded, ws.OutcomeRecordedEvent{
			DecisionID: o.DecisionID,
			Success:    o.Success,
		})
	}
}

func (e *DecisionEngine) publish(ctx context.Context, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal event payload", "subject", subject, "error", err)
		return
	}
	if err := e.queue.Publish(ctx, subject, data); err != nil {
		slog.Error("publish event", "subject", subject, "error", err)
	}
}

// StartOutcomeSubscriber consumes outcome reports published by external
// executors on the message queue and feeds them into the engine's history.
// The returned function stops the subscription.
func (e *DecisionEngine) StartOutcomeSubscriber(ctx context.Context) (func(), error) {
	return e.queue.Subscribe(ctx, messagequeue.SubjectOutcomeReport, func(subject string, data []byte) error {
		var report messagequeue.OutcomeReportPayload
		if err := json.Unmarshal(data, &report); err != nil {
			slog.Error("unmarshal outcome report", "subject", subject, "error", err)
			return nil // malformed reports are dropped, not redelivered
		}
		e.UpdateOutcome(ctx, report.DecisionID, decision.Outcome{
			ActualBenefit:    report.ActualBenefit,
			ActualDurationMS: report.ActualDurationMS,
			Success:          report.Success,
		})
		return nil
	})
}
