package handlers

import (
	"net/http"

	"freightboard/internal/auth"

	"github.com/go-chi/chi/v5"
)

// GetNotificationsHandler handles GET /api/notifications for the caller.
func (h *Handler) GetNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	params := parsePaginationParams(r)
	notifications, err := h.Store.GetAccountNotifications(r.Context(), session.AccountID, params.Limit, params.Offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get notifications")
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}

// MarkNotificationReadHandler handles POST /api/notifications/{notificationId}/read.
func (h *Handler) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.SessionFrom(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id := chi.URLParam(r, "notificationId")
	if err := h.Store.MarkNotificationRead(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to mark notification read")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"read": true})
}
