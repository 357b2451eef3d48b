package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"freightboard/internal/access"
	"freightboard/internal/bidflow"
	"freightboard/internal/feed"
	"freightboard/internal/notify"
)

// AccessGate is satisfied by access.Gate.
type AccessGate interface {
	CheckAccess(ctx context.Context, feature access.Feature, accountID string) bool
}

// Handler wires the HTTP surface to storage, the feature gate, the
// bid coordinator, and the realtime feed.
type Handler struct {
	Store    StorageInterface
	Gate     AccessGate
	Flow     *bidflow.Coordinator
	Notifier *notify.Notifier
	Events   feed.EventSource
}

func NewHandler(store StorageInterface, gate AccessGate, flow *bidflow.Coordinator, notifier *notify.Notifier, events feed.EventSource) *Handler {
	return &Handler{
		Store:    store,
		Gate:     gate,
		Flow:     flow,
		Notifier: notifier,
		Events:   events,
	}
}

// PingHandler answers "ok" for health checks.
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
