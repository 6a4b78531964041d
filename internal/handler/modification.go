package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"laundromat/internal/mw"
	"laundromat/internal/service"
)

func ProposeModificationHandler(modSvc *service.ModificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var changes service.ModificationChanges
		if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		userID := r.Context().Value(mw.UserCtxKey).(string)
		role := r.Context().Value(mw.RoleCtxKey).(string)
		order, err := modSvc.Propose(r.Context(), chi.URLParam(r, "id"), userID, role, changes)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		// The returned order is the post-write state; clients must render
		// from it rather than re-fetching.
		writeJSON(w, http.StatusOK, order)
	}
}

func ApproveModificationHandler(modSvc *service.ModificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := modSvc.Approve(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

func RejectModificationHandler(modSvc *service.ModificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := modSvc.Reject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}
