package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/exampulse/exampulse/internal/auth/middleware"
	"github.com/exampulse/exampulse/internal/notify"
)

// GET /notifications
func ListNotificationsHandler(repo *notify.SQLRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := repo.ListForUser(r.Context(), id.ID, 50)
		if err != nil {
			http.Error(w, "list notifications", http.StatusInternalServerError)
			return
		}
		if items == nil {
			items = []notify.Notification{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// POST /notifications/{notificationID}/read
func MarkNotificationReadHandler(repo *notify.SQLRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		found, err := repo.MarkRead(r.Context(), id.ID, chi.URLParam(r, "notificationID"), true)
		if err != nil {
			http.Error(w, "mark read", http.StatusInternalServerError)
			return
		}
		if !found {
			http.Error(w, "notification not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"read": true})
	}
}
