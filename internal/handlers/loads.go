package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"freightboard/db"
	"freightboard/internal/access"
	"freightboard/internal/auth"
	"freightboard/internal/bidflow"

	"github.com/go-chi/chi/v5"
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams parses limit and offset from the query, with
// defaults and caps.
func parsePaginationParams(r *http.Request) PaginationParams {
	var params PaginationParams
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	params.Limit = 20
	params.Offset = 0

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			params.Limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			params.Offset = o
		}
	}
	return params
}

// CreateLoadHandler handles POST /api/loads.
func (h *Handler) CreateLoadHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if session.Role != string(access.RoleBroker) {
		writeError(w, http.StatusForbidden, "Only brokers can post loads")
		return
	}

	if !h.Gate.CheckAccess(r.Context(), access.FeatureLoadPostsPerMonth, session.AccountID) {
		writeError(w, http.StatusForbidden, "You have reached your monthly load posting limit")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var load db.Load
	if err := json.Unmarshal(body, &load); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if err := validateLoadRequest(&load); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if load.Status != "" && load.Status != bidflow.LoadPosted {
		writeError(w, http.StatusBadRequest, "status must be 'posted' on creation")
		return
	}

	load.BrokerID = session.AccountID
	load.Status = bidflow.LoadPosted

	if err := h.Store.CreateLoad(r.Context(), &load); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create load")
		return
	}

	writeJSON(w, http.StatusOK, load)
}

func validateLoadRequest(l *db.Load) error {
	if l.LoadType == "" {
		return errLoad("loadType is required")
	}
	if l.WeightKg <= 0 {
		return errLoad("weightKg must be positive")
	}
	if l.PickupLocation == "" || l.DeliveryLocation == "" {
		return errLoad("pickupLocation and deliveryLocation are required")
	}
	if l.PickupDeadline.IsZero() || l.DeliveryDeadline.IsZero() {
		return errLoad("pickupDeadline and deliveryDeadline are required")
	}
	if l.DeliveryDeadline.Before(l.PickupDeadline) {
		return errLoad("deliveryDeadline must not precede pickupDeadline")
	}
	if l.BudgetAmount < 0 {
		return errLoad("budgetAmount must be non-negative")
	}
	if l.BudgetCurrency == "" {
		l.BudgetCurrency = "USD"
	}
	if l.FixedRate != nil && *l.FixedRate < 0 {
		return errLoad("fixedRate must be non-negative")
	}
	return nil
}

type loadValidationError string

func (e loadValidationError) Error() string { return string(e) }

func errLoad(msg string) error { return loadValidationError(msg) }

// GetLoadsHandler handles GET /api/loads with an optional status filter.
func (h *Handler) GetLoadsHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	statuses := r.URL.Query()["status"]
	allowed := map[string]bool{
		bidflow.LoadPosted:    true,
		bidflow.LoadPending:   true,
		bidflow.LoadAccepted:  true,
		bidflow.LoadRejected:  true,
		bidflow.LoadCompleted: true,
	}
	var filtered []string
	for _, v := range statuses {
		if allowed[v] {
			filtered = append(filtered, v)
		}
	}

	loads, err := h.Store.GetLoads(r.Context(), filtered, params.Limit, params.Offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get loads")
		return
	}

	writeJSON(w, http.StatusOK, loads)
}

// GetMyLoadsHandler handles GET /api/loads/my for the calling broker.
func (h *Handler) GetMyLoadsHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	params := parsePaginationParams(r)
	loads, err := h.Store.GetBrokerLoads(r.Context(), session.AccountID, params.Limit, params.Offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get loads")
		return
	}

	writeJSON(w, http.StatusOK, loads)
}

// GetLoadHandler handles GET /api/loads/{loadId}.
func (h *Handler) GetLoadHandler(w http.ResponseWriter, r *http.Request) {
	loadID := chi.URLParam(r, "loadId")

	load, err := h.Store.GetLoad(r.Context(), loadID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Load not found")
		return
	}

	writeJSON(w, http.StatusOK, load)
}

// EditLoadHandler handles PATCH /api/loads/{loadId}. Broker-owner only.
func (h *Handler) EditLoadHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	loadID := chi.URLParam(r, "loadId")

	load, err := h.Store.GetLoad(r.Context(), loadID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Load not found")
		return
	}
	if load.BrokerID != session.AccountID {
		writeError(w, http.StatusForbidden, "Not authorized to edit this load")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Cannot read body")
		return
	}
	defer r.Body.Close()

	var input struct {
		LoadType         *string    `json:"loadType"`
		WeightKg         *float64   `json:"weightKg"`
		PickupLocation   *string    `json:"pickupLocation"`
		DeliveryLocation *string    `json:"deliveryLocation"`
		PickupDeadline   *time.Time `json:"pickupDeadline"`
		DeliveryDeadline *time.Time `json:"deliveryDeadline"`
		BudgetAmount     *float64   `json:"budgetAmount"`
		BudgetCurrency   *string    `json:"budgetCurrency"`
		BidEnabled       *bool      `json:"bidEnabled"`
		FixedRate        *float64   `json:"fixedRate"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if input.LoadType != nil {
		load.LoadType = *input.LoadType
	}
	if input.WeightKg != nil {
		load.WeightKg = *input.WeightKg
	}
	if input.PickupLocation != nil {
		load.PickupLocation = *input.PickupLocation
	}
	if input.DeliveryLocation != nil {
		load.DeliveryLocation = *input.DeliveryLocation
	}
	if input.PickupDeadline != nil {
		load.PickupDeadline = *input.PickupDeadline
	}
	if input.DeliveryDeadline != nil {
		load.DeliveryDeadline = *input.DeliveryDeadline
	}
	if input.BudgetAmount != nil {
		load.BudgetAmount = *input.BudgetAmount
	}
	if input.BudgetCurrency != nil {
		load.BudgetCurrency = *input.BudgetCurrency
	}
	if input.BidEnabled != nil {
		load.BidEnabled = *input.BidEnabled
	}
	if input.FixedRate != nil {
		load.FixedRate = input.FixedRate
	}

	if err := validateLoadRequest(load); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Store.UpdateLoad(r.Context(), load); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update load")
		return
	}

	writeJSON(w, http.StatusOK, load)
}

// CompetingBid is a redacted bid row: competitors never see who else bid.
type CompetingBid struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"bidAmount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoadBidsHandler handles GET /api/loads/{loadId}/bids: the trucker
// dashboard's own/competing split, ascending by amount.
func (h *Handler) LoadBidsHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	loadID := chi.URLParam(r, "loadId")
	if _, err := h.Store.GetLoad(r.Context(), loadID); err != nil {
		writeError(w, http.StatusNotFound, "Load not found")
		return
	}

	bids, err := h.Store.GetLoadBidsByAmount(r.Context(), loadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get bids")
		return
	}

	var own *db.Bid
	competing := []CompetingBid{}
	for i := range bids {
		b := bids[i]
		if b.TruckerID == session.AccountID {
			// The trucker's latest bid is their current position.
			if own == nil || b.CreatedAt.After(own.CreatedAt) {
				own = &bids[i]
			}
			continue
		}
		competing = append(competing, CompetingBid{
			ID:        b.ID,
			Amount:    b.Amount,
			Status:    b.Status,
			CreatedAt: b.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ownBid":        own,
		"competingBids": competing,
	})
}
