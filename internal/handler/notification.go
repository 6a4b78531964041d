package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"laundromat/internal/mw"
	"laundromat/internal/service"
)

func ListNotificationsHandler(notifSvc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(mw.UserCtxKey).(string)

		notifications, err := notifSvc.ListByUser(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if len(notifications) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, notifications)
	}
}

func MarkNotificationReadHandler(notifSvc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(mw.UserCtxKey).(string)

		if err := notifSvc.MarkRead(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
