// Package http provides the REST adapter over the decision engine.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/strategis-io/arbiter/internal/domain/decision"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type errorResponse struct {
	Error string `json:"error"`
}

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDecisionError maps the engine's error taxonomy onto HTTP statuses:
// policy violations are forbidden, while empty option sets and confidence
// floors are unprocessable (the caller can relax constraints and retry).
func writeDecisionError(w http.ResponseWriter, err error) {
	var policyErr *decision.PolicyViolationError
	var noViableErr *decision.NoViableOptionsError
	var confidenceErr *decision.ConfidenceTooLowError

	switch {
	case errors.As(err, &policyErr):
		writeError(w, http.StatusForbidden, policyErr.Error())
	case errors.As(err, &noViableErr):
		writeError(w, http.StatusUnprocessableEntity, noViableErr.Error())
	case errors.As(err, &confidenceErr):
		writeError(w, http.StatusUnprocessableEntity, confidenceErr.Error())
	default:
		slog.Error("decision failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
