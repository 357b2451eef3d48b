// Package bidflow enforces the bid lifecycle and the invariants between
// bids and their loads during accept/reject decisions.
package bidflow

import (
	"context"
	"errors"
	"log"

	"freightboard/db"
	"freightboard/internal/access"
)

// Bid statuses.
const (
	BidPending  = "pending"
	BidAccepted = "accepted"
	BidRejected = "rejected"
)

// Load statuses.
const (
	LoadPosted    = "posted"
	LoadPending   = "pending"
	LoadAccepted  = "accepted"
	LoadRejected  = "rejected"
	LoadCompleted = "completed"
)

var (
	ErrBidNotFound       = errors.New("bid not found")
	ErrInvalidTransition = errors.New("invalid bid status transition")

	// ErrLoadAlreadyAccepted guards the one-accepted-bid-per-load rule:
	// the winning bid must be undone before another can be accepted.
	ErrLoadAlreadyAccepted = errors.New("load already has an accepted bid")

	// ErrTruckerLoadLimit is surfaced to the broker verbatim.
	ErrTruckerLoadLimit = errors.New("Trucker has reached their maximum active loads limit.")
)

// CanTransition is the bid state machine. Accepted and rejected bids can
// only move back to pending (explicit undo); there is no direct
// accepted<->rejected shortcut.
func CanTransition(from, to string) bool {
	switch from {
	case BidPending:
		return to == BidAccepted || to == BidRejected
	case BidAccepted, BidRejected:
		return to == BidPending
	}
	return false
}

// Store is the slice of db.Storage the coordinator writes through.
type Store interface {
	GetBid(ctx context.Context, id string) (*db.Bid, error)
	GetLoad(ctx context.Context, id string) (*db.Load, error)
	UpdateBidStatus(ctx context.Context, id, status string) error
	UpdateLoadStatus(ctx context.Context, id, status string) error
}

// AccessGate is satisfied by access.Gate.
type AccessGate interface {
	CheckAccess(ctx context.Context, feature access.Feature, accountID string) bool
}

// NotificationSink receives fire-and-forget status notifications. Send
// failures are logged and never roll back the decision.
type NotificationSink interface {
	Notify(ctx context.Context, accountID, kind, message string, loadID, bidID *string) error
}

type Coordinator struct {
	store Store
	gate  AccessGate
	sink  NotificationSink
}

func NewCoordinator(store Store, gate AccessGate, sink NotificationSink) *Coordinator {
	return &Coordinator{store: store, gate: gate, sink: sink}
}

// AcceptBid accepts a pending bid, provided the load has no accepted
// bid yet and the submitting trucker has room under their active-load
// quota, and marks the load accepted.
func (c *Coordinator) AcceptBid(ctx context.Context, id string) (*db.Bid, error) {
	bid, err := c.store.GetBid(ctx, id)
	if err != nil {
		return nil, ErrBidNotFound
	}

	if !CanTransition(bid.Status, BidAccepted) {
		return nil, ErrInvalidTransition
	}

	load, err := c.store.GetLoad(ctx, bid.LoadID)
	if err != nil {
		return nil, err
	}
	if load.Status == LoadAccepted || load.Status == LoadCompleted {
		return nil, ErrLoadAlreadyAccepted
	}

	if !c.gate.CheckAccess(ctx, access.FeatureActiveLoads, bid.TruckerID) {
		return nil, ErrTruckerLoadLimit
	}

	if err := c.store.UpdateBidStatus(ctx, bid.ID, BidAccepted); err != nil {
		return nil, err
	}
	bid.Status = BidAccepted

	if err := c.store.UpdateLoadStatus(ctx, bid.LoadID, LoadAccepted); err != nil {
		log.Printf("bidflow: failed to mark load %s accepted: %v", bid.LoadID, err)
	}

	c.notify(ctx, bid, "bid_accepted", "Your bid was accepted")
	return bid, nil
}

// RejectBid rejects a pending bid. No quota check applies.
func (c *Coordinator) RejectBid(ctx context.Context, id string) (*db.Bid, error) {
	bid, err := c.store.GetBid(ctx, id)
	if err != nil {
		return nil, ErrBidNotFound
	}

	if !CanTransition(bid.Status, BidRejected) {
		return nil, ErrInvalidTransition
	}

	if err := c.store.UpdateBidStatus(ctx, bid.ID, BidRejected); err != nil {
		return nil, err
	}
	bid.Status = BidRejected

	c.notify(ctx, bid, "bid_rejected", "Your bid was rejected")
	return bid, nil
}

// UndoBid returns an accepted or rejected bid to pending. Undoing an
// accepted bid also reopens the load.
func (c *Coordinator) UndoBid(ctx context.Context, id string) (*db.Bid, error) {
	bid, err := c.store.GetBid(ctx, id)
	if err != nil {
		return nil, ErrBidNotFound
	}

	if !CanTransition(bid.Status, BidPending) {
		return nil, ErrInvalidTransition
	}

	wasAccepted := bid.Status == BidAccepted

	if err := c.store.UpdateBidStatus(ctx, bid.ID, BidPending); err != nil {
		return nil, err
	}
	bid.Status = BidPending

	if wasAccepted {
		if err := c.store.UpdateLoadStatus(ctx, bid.LoadID, LoadPosted); err != nil {
			log.Printf("bidflow: failed to reopen load %s: %v", bid.LoadID, err)
		}
	}

	c.notify(ctx, bid, "bid_reset", "Your bid was returned to pending")
	return bid, nil
}

func (c *Coordinator) notify(ctx context.Context, bid *db.Bid, kind, message string) {
	if c.sink == nil {
		return
	}
	if err := c.sink.Notify(ctx, bid.TruckerID, kind, message, &bid.LoadID, &bid.ID); err != nil {
		log.Printf("bidflow: notify %s failed: %v", kind, err)
	}
}
