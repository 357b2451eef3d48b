package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"freightboard/db"
	"freightboard/internal/access"
	"freightboard/internal/auth"
	"freightboard/internal/bidflow"

	"github.com/go-chi/chi/v5"
)

// CreateBidHandler handles POST /api/bids.
func (h *Handler) CreateBidHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if session.Role != string(access.RoleTrucker) {
		writeError(w, http.StatusForbidden, "Only truckers can place bids")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var input struct {
		LoadID string  `json:"load_id"`
		Amount float64 `json:"bid_amount"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if input.LoadID == "" {
		writeError(w, http.StatusBadRequest, "load_id is required")
		return
	}
	if input.Amount < 0 {
		writeError(w, http.StatusBadRequest, "bid_amount must be non-negative")
		return
	}

	load, err := h.Store.GetLoad(r.Context(), input.LoadID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Load not found")
		return
	}
	if !load.BidEnabled {
		writeError(w, http.StatusBadRequest, "Bidding is not enabled for this load")
		return
	}

	if !h.Gate.CheckAccess(r.Context(), access.FeatureBidsPerMonth, session.AccountID) {
		writeError(w, http.StatusForbidden, "You have reached your monthly bid limit")
		return
	}
	if !h.Gate.CheckAccess(r.Context(), access.FeatureActiveBids, session.AccountID) {
		writeError(w, http.StatusForbidden, "You have reached your maximum active bids limit")
		return
	}

	bid := db.Bid{
		LoadID:    load.ID,
		TruckerID: session.AccountID,
		Amount:    input.Amount,
		Status:    bidflow.BidPending, // forced regardless of caller input
	}
	if err := h.Store.CreateBid(r.Context(), &bid); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create bid")
		return
	}

	if h.Notifier != nil {
		h.Notifier.BidReceived(r.Context(), load.BrokerID, load.ID, bid.ID)
	}

	writeJSON(w, http.StatusOK, bid)
}

// GetBidsHandler handles GET /api/bids?load_id=. Owning broker only.
func (h *Handler) GetBidsHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	loadID := r.URL.Query().Get("load_id")
	if loadID == "" {
		writeError(w, http.StatusBadRequest, "Missing load_id parameter")
		return
	}

	load, err := h.Store.GetLoad(r.Context(), loadID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Load not found")
		return
	}
	if load.BrokerID != session.AccountID {
		writeError(w, http.StatusForbidden, "Not authorized to view bids for this load")
		return
	}

	bids, err := h.Store.GetBidsForLoad(r.Context(), loadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get bids")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"bids": bids})
}

// UpdateBidStatusHandler handles PATCH /api/bids/{bidId}. The only
// accepted values are "accepted" and "rejected"; undo is a separate route.
func (h *Handler) UpdateBidStatusHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	bidID := chi.URLParam(r, "bidId")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Cannot read body")
		return
	}
	defer r.Body.Close()

	var input struct {
		BidStatus string `json:"bid_status"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if input.BidStatus != bidflow.BidAccepted && input.BidStatus != bidflow.BidRejected {
		writeError(w, http.StatusBadRequest, "bid_status must be 'accepted' or 'rejected'")
		return
	}

	if !h.authorizeBidBroker(w, r, session, bidID) {
		return
	}

	var bid *db.Bid
	if input.BidStatus == bidflow.BidAccepted {
		bid, err = h.Flow.AcceptBid(r.Context(), bidID)
	} else {
		bid, err = h.Flow.RejectBid(r.Context(), bidID)
	}
	if err != nil {
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bid)
}

// UpdateBidAmountHandler handles PATCH /api/bids/{bidId}/update. Only the
// bid's own trucker may edit, and only while the bid is pending.
func (h *Handler) UpdateBidAmountHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	bidID := chi.URLParam(r, "bidId")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Cannot read body")
		return
	}
	defer r.Body.Close()

	var input struct {
		Amount float64 `json:"bid_amount"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if input.Amount < 0 {
		writeError(w, http.StatusBadRequest, "bid_amount must be non-negative")
		return
	}

	bid, err := h.Store.GetBid(r.Context(), bidID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Bid not found")
		return
	}
	if bid.TruckerID != session.AccountID {
		writeError(w, http.StatusForbidden, "Not authorized to edit this bid")
		return
	}
	if bid.Status != bidflow.BidPending {
		writeError(w, http.StatusBadRequest, "Only pending bids can be edited")
		return
	}

	if err := h.Store.UpdateBidAmount(r.Context(), bid.ID, input.Amount); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update bid")
		return
	}
	bid.Amount = input.Amount

	writeJSON(w, http.StatusOK, bid)
}

// UndoBidStatusHandler handles POST /api/bids/{bidId}/undo, returning an
// accepted or rejected bid to pending.
func (h *Handler) UndoBidStatusHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	bidID := chi.URLParam(r, "bidId")
	if !h.authorizeBidBroker(w, r, session, bidID) {
		return
	}

	bid, err := h.Flow.UndoBid(r.Context(), bidID)
	if err != nil {
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bid)
}

// DeleteBidHandler handles DELETE /api/bids/{bidId}. Owning trucker only,
// pending bids only.
func (h *Handler) DeleteBidHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	bidID := chi.URLParam(r, "bidId")

	bid, err := h.Store.GetBid(r.Context(), bidID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Bid not found")
		return
	}
	if bid.TruckerID != session.AccountID {
		writeError(w, http.StatusForbidden, "Not authorized to delete this bid")
		return
	}
	if bid.Status != bidflow.BidPending {
		writeError(w, http.StatusBadRequest, "Only pending bids can be withdrawn")
		return
	}

	if err := h.Store.DeleteBid(r.Context(), bid.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete bid")
		return
	}

	if h.Notifier != nil {
		if load, err := h.Store.GetLoad(r.Context(), bid.LoadID); err == nil {
			h.Notifier.BidWithdrawn(r.Context(), load.BrokerID, load.ID)
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// AcceptFixedRateHandler handles POST /api/bids/accept-fixed-rate. The
// bid amount comes from the load's fixed rate, never from the client.
func (h *Handler) AcceptFixedRateHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if session.Role != string(access.RoleTrucker) {
		writeError(w, http.StatusForbidden, "Only truckers can accept a fixed rate")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Cannot read body")
		return
	}
	defer r.Body.Close()

	var input struct {
		LoadID string `json:"load_id"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if input.LoadID == "" {
		writeError(w, http.StatusBadRequest, "load_id is required")
		return
	}

	load, err := h.Store.GetLoad(r.Context(), input.LoadID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Load not found")
		return
	}
	if load.FixedRate == nil {
		writeError(w, http.StatusBadRequest, "Load does not have a fixed rate")
		return
	}

	if !h.Gate.CheckAccess(r.Context(), access.FeatureBidsPerMonth, session.AccountID) {
		writeError(w, http.StatusForbidden, "You have reached your monthly bid limit")
		return
	}
	if !h.Gate.CheckAccess(r.Context(), access.FeatureActiveBids, session.AccountID) {
		writeError(w, http.StatusForbidden, "You have reached your maximum active bids limit")
		return
	}

	bid := db.Bid{
		LoadID:    load.ID,
		TruckerID: session.AccountID,
		Amount:    *load.FixedRate,
		Status:    bidflow.BidPending,
	}
	if err := h.Store.CreateBid(r.Context(), &bid); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create bid")
		return
	}

	if h.Notifier != nil {
		h.Notifier.BidReceived(r.Context(), load.BrokerID, load.ID, bid.ID)
	}

	writeJSON(w, http.StatusOK, bid)
}

// authorizeBidBroker checks that the session owns the load behind the
// bid. Writes the error response itself and reports whether to proceed.
func (h *Handler) authorizeBidBroker(w http.ResponseWriter, r *http.Request, session *auth.Session, bidID string) bool {
	bid, err := h.Store.GetBid(r.Context(), bidID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Bid not found")
		return false
	}
	load, err := h.Store.GetLoad(r.Context(), bid.LoadID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Load not found")
		return false
	}
	if load.BrokerID != session.AccountID {
		writeError(w, http.StatusForbidden, "Not authorized to decide on this bid")
		return false
	}
	return true
}

func writeFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bidflow.ErrBidNotFound):
		writeError(w, http.StatusNotFound, "Bid not found")
	case errors.Is(err, bidflow.ErrLoadAlreadyAccepted):
		writeError(w, http.StatusConflict, "Load already has an accepted bid")
	case errors.Is(err, bidflow.ErrTruckerLoadLimit):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, bidflow.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, "Invalid bid status transition")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to update bid status")
	}
}
