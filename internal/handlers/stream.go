package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"freightboard/db"
	"freightboard/internal/auth"
	"freightboard/internal/feed"

	"github.com/go-chi/chi/v5"
)

// streamBid is the wire form of a bid in stream frames. truckerId is
// omitted for viewers who are neither the load's broker nor the bid's
// own trucker, matching the redaction in LoadBidsHandler.
type streamBid struct {
	ID        string    `json:"id"`
	LoadID    string    `json:"loadId"`
	TruckerID string    `json:"truckerId,omitempty"`
	Amount    float64   `json:"bidAmount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type streamFrame struct {
	Action feed.Action `json:"action"`
	Bid    *streamBid  `json:"bid,omitempty"`
	Bids   []streamBid `json:"bids"`
}

func redactBid(b db.Bid, viewerID, brokerID string) streamBid {
	sb := streamBid{
		ID:        b.ID,
		LoadID:    b.LoadID,
		TruckerID: b.TruckerID,
		Amount:    b.Amount,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
	}
	if viewerID != brokerID && viewerID != b.TruckerID {
		sb.TruckerID = ""
	}
	return sb
}

func redactBids(bids []db.Bid, viewerID, brokerID string) []streamBid {
	out := make([]streamBid, len(bids))
	for i, b := range bids {
		out[i] = redactBid(b, viewerID, brokerID)
	}
	return out
}

// StreamLoadBidsHandler handles GET /api/loads/{loadId}/bids/stream: a
// server-sent-events stream of the load's bids. Each frame carries the
// triggering event plus the full merged list, so clients need no merge
// logic of their own and reconnects start from a fresh snapshot.
func (h *Handler) StreamLoadBidsHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if h.Events == nil {
		writeError(w, http.StatusServiceUnavailable, "Realtime feed is not available")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	loadID := chi.URLParam(r, "loadId")
	load, err := h.Store.GetLoad(r.Context(), loadID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Load not found")
		return
	}

	bids, err := h.Store.GetLoadBidsByAmount(r.Context(), loadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get bids")
		return
	}

	events, err := h.Events.Subscribe(r.Context(), loadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	view := feed.NewView(bids)
	writeSSE(w, "snapshot", streamFrame{Bids: redactBids(view.Bids(), session.AccountID, load.BrokerID)})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			merged := view.Apply(ev)
			bid := redactBid(ev.Bid, session.AccountID, load.BrokerID)
			writeSSE(w, "bid", streamFrame{
				Action: ev.Action,
				Bid:    &bid,
				Bids:   redactBids(merged, session.AccountID, load.BrokerID),
			})
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, frame streamFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
