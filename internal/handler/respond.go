package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"laundromat/internal/pricing"
	"laundromat/internal/repository"
	"laundromat/internal/schedule"
	"laundromat/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// writeServiceError maps service errors to HTTP status codes. The error
// text of known failures is safe to surface; everything else is an
// internal error.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
	case errors.Is(err, pricing.ErrInvalidItem),
		errors.Is(err, schedule.ErrMalformedPattern):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidProposal),
		errors.Is(err, service.ErrNoPendingModification),
		errors.Is(err, service.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrNotOrderOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrOrderLocked):
		http.Error(w, err.Error(), http.StatusLocked)
	default:
		slog.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
