package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventDecisionMade    = "decision.made"
	EventOutcomeRecorded = "decision.outcome"
)

// DecisionMadeEvent is broadcast after every successful decision.
type DecisionMadeEvent struct {
	DecisionID string  `json:"decision_id"`
	OptionID   string  `json:"option_id"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// OutcomeRecordedEvent is broadcast when an outcome report is applied.
type OutcomeRecordedEvent struct {
	DecisionID string `json:"decision_id"`
	Success    bool   `json:"success"`
}

// BroadcastEvent marshals a typed event and broadcasts it to all clients.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
