package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/strategis-io/arbiter/internal/domain/decision"
	"github.com/strategis-io/arbiter/internal/domain/plan"
	"github.com/strategis-io/arbiter/internal/port/cache"
	"github.com/strategis-io/arbiter/internal/port/journal"
	"github.com/strategis-io/arbiter/internal/service"
)

const (
	statsCacheKey    = "stats:v1"
	defaultListLimit = 50
	maxListLimit     = 500
)

// Handlers bundles the dependencies of all HTTP handlers.
// Journal and Cache are optional; nil disables the corresponding feature.
type Handlers struct {
	Engine        *service.DecisionEngine
	Journal       journal.Journal
	Cache         cache.Cache
	StatsCacheTTL time.Duration
}

type decideRequest struct {
	Context  decision.Context   `json:"context"`
	Criteria *decision.Criteria `json:"criteria,omitempty"`
}

type planDecideRequest struct {
	Plan    plan.Plan        `json:"plan"`
	Context decision.Context `json:"context"`
}

type outcomeRequest struct {
	ActualBenefit    float64 `json:"actual_benefit"`
	ActualDurationMS int64   `json:"actual_duration_ms"`
	Success          bool    `json:"success"`
}

// Decide runs a decision over the submitted context.
func (h *Handlers) Decide(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[decideRequest](w, r)
	if !ok {
		return
	}
	if len(req.Context.AvailableOptions) == 0 {
		writeError(w, http.StatusBadRequest, "context.available_options is required")
		return
	}

	result, err := h.Engine.Decide(r.Context(), req.Context, req.Criteria)
	if err != nil {
		writeDecisionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// DecidePlan converts a plan into a candidate option and decides whether to
// execute it.
func (h *Handlers) DecidePlan(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[planDecideRequest](w, r)
	if !ok {
		return
	}
	if req.Plan.ID == "" {
		writeError(w, http.StatusBadRequest, "plan.id is required")
		return
	}

	result, err := h.Engine.DecidePlanExecution(r.Context(), &req.Plan, req.Context)
	if err != nil {
		writeDecisionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ReportOutcome applies reported actuals to a recorded decision. Unknown
// decision ids are accepted and ignored: outcome reporting is best-effort
// telemetry.
func (h *Handlers) ReportOutcome(w http.ResponseWriter, r *http.Request) {
	decisionID := urlParam(r, "id")
	req, ok := readJSON[outcomeRequest](w, r)
	if !ok {
		return
	}

	h.Engine.UpdateOutcome(r.Context(), decisionID, decision.Outcome{
		ActualBenefit:    req.ActualBenefit,
		ActualDurationMS: req.ActualDurationMS,
		Success:          req.Success,
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// Stats returns aggregate engine statistics, cached briefly to keep hot
// dashboards off the engine's lock.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	if h.Cache != nil {
		if data, ok, err := h.Cache.Get(r.Context(), statsCacheKey); err == nil && ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(data)
			return
		}
	}

	stats := h.Engine.Stats()

	if h.Cache != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := h.Cache.Set(r.Context(), statsCacheKey, data, h.StatsCacheTTL); err != nil {
				slog.Debug("stats cache set failed", "error", err)
			}
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListDecisions returns recently journaled decisions, newest first.
func (h *Handlers) ListDecisions(w http.ResponseWriter, r *http.Request) {
	if h.Journal == nil {
		writeError(w, http.StatusNotImplemented, "decision journal not configured")
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	records, err := h.Journal.ListRecent(r.Context(), limit)
	if err != nil {
		slog.Error("list decisions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if records == nil {
		records = []journal.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}
