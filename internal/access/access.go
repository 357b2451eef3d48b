package access

import (
	"context"
	"fmt"
	"time"

	"freightboard/db"
)

// Store is the slice of db.Storage the gate needs: the account's
// role/tier and the monthly usage counts behind each quota feature.
type Store interface {
	GetAccount(ctx context.Context, id string) (*db.Account, error)
	CountBrokerLoadsSince(ctx context.Context, brokerID string, since time.Time) (int, error)
	CountTruckerBidsSince(ctx context.Context, truckerID string, since time.Time) (int, error)
	CountTruckerPendingBidsSince(ctx context.Context, truckerID string, since time.Time) (int, error)
	CountTruckerAcceptedBidsSince(ctx context.Context, truckerID string, since time.Time) (int, error)
}

// Gate decides whether an account may perform a quota-limited action.
// The tier table is fixed at construction.
type Gate struct {
	tiers TierConfig
	store Store
	now   func() time.Time
}

func NewGate(tiers TierConfig, store Store) *Gate {
	return &Gate{tiers: tiers, store: store, now: time.Now}
}

// CheckAccess reports whether the account may use the named feature right
// now. Every failure path (unknown account, unknown feature, count error)
// denies rather than errors: callers turn false into a user-facing
// rejection, never a 5xx.
func (g *Gate) CheckAccess(ctx context.Context, feature Feature, accountID string) bool {
	acct, err := g.store.GetAccount(ctx, accountID)
	if err != nil {
		return false
	}

	role, err := ParseRole(acct.Role)
	if err != nil {
		return false
	}
	tier, err := ParseTier(acct.Tier)
	if err != nil {
		return false
	}

	val, err := g.tiers.FeatureLimit(role, tier, feature)
	if err != nil {
		return false
	}

	switch val.kind {
	case kindBool:
		return val.allow
	case kindUnlimited:
		return true
	case kindLimit:
		count, err := g.usage(ctx, feature, role, acct.ID)
		if err != nil {
			return false
		}
		return count < val.limit
	}
	return false
}

// usage resolves a feature to its backing count, scoped to the current
// calendar month.
func (g *Gate) usage(ctx context.Context, feature Feature, role Role, accountID string) (int, error) {
	since := monthStart(g.now())

	switch feature {
	case FeatureLoadPostsPerMonth:
		return g.store.CountBrokerLoadsSince(ctx, accountID, since)
	case FeatureActiveLoads:
		// A broker's active loads are their postings; a trucker's are
		// the loads they won.
		if role == RoleBroker {
			return g.store.CountBrokerLoadsSince(ctx, accountID, since)
		}
		return g.store.CountTruckerAcceptedBidsSince(ctx, accountID, since)
	case FeatureBidsPerMonth:
		return g.store.CountTruckerBidsSince(ctx, accountID, since)
	case FeatureActiveBids:
		// Bids still awaiting a decision.
		return g.store.CountTruckerPendingBidsSince(ctx, accountID, since)
	}
	return 0, fmt.Errorf("no usage count for feature %q", feature)
}

func monthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
