package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"laundromat/internal/mw"
	"laundromat/internal/schedule"
	"laundromat/internal/service"
)

func ListRecurringHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := orderSvc.ListRecurring(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if len(orders) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	}
}

// OccurrencesHandler returns the projected future deliveries of an order.
// Optional query params: horizon (YYYY-MM-DD or RFC3339) and max.
func OccurrencesHandler(orderSvc *service.OrderService, horizonMonths, defaultMaxIterations int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		horizon := time.Now().UTC().AddDate(0, horizonMonths, 0)
		if raw := r.URL.Query().Get("horizon"); raw != "" {
			parsed, err := parseDate(raw)
			if err != nil {
				http.Error(w, "invalid horizon", http.StatusBadRequest)
				return
			}
			horizon = parsed
		}

		maxIterations := defaultMaxIterations
		if raw := r.URL.Query().Get("max"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "invalid max", http.StatusBadRequest)
				return
			}
			maxIterations = n
		}

		occurrences, err := orderSvc.Occurrences(r.Context(), chi.URLParam(r, "id"), horizon, maxIterations)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if occurrences == nil {
			occurrences = []schedule.Occurrence{}
		}
		writeJSON(w, http.StatusOK, occurrences)
	}
}

func CancelRecurringHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(mw.UserCtxKey).(string)
		role := r.Context().Value(mw.RoleCtxKey).(string)
		order, err := orderSvc.CancelRecurring(r.Context(), chi.URLParam(r, "id"), userID, role)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
