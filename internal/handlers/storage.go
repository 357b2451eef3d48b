package handlers

import (
	"context"
	"time"

	"freightboard/db"
)

type StorageInterface interface {
	GetAccount(ctx context.Context, id string) (*db.Account, error)

	CountBrokerLoadsSince(ctx context.Context, brokerID string, since time.Time) (int, error)
	CountTruckerBidsSince(ctx context.Context, truckerID string, since time.Time) (int, error)
	CountTruckerPendingBidsSince(ctx context.Context, truckerID string, since time.Time) (int, error)
	CountTruckerAcceptedBidsSince(ctx context.Context, truckerID string, since time.Time) (int, error)

	CreateLoad(ctx context.Context, load *db.Load) error
	GetLoad(ctx context.Context, id string) (*db.Load, error)
	UpdateLoad(ctx context.Context, load *db.Load) error
	UpdateLoadStatus(ctx context.Context, id, status string) error
	GetLoads(ctx context.Context, statuses []string, limit, offset int) ([]db.Load, error)
	GetBrokerLoads(ctx context.Context, brokerID string, limit, offset int) ([]db.Load, error)

	CreateBid(ctx context.Context, bid *db.Bid) error
	GetBid(ctx context.Context, id string) (*db.Bid, error)
	UpdateBidAmount(ctx context.Context, id string, amount float64) error
	UpdateBidStatus(ctx context.Context, id, status string) error
	DeleteBid(ctx context.Context, id string) error
	GetBidsForLoad(ctx context.Context, loadID string) ([]db.BidWithTrucker, error)
	GetLoadBidsByAmount(ctx context.Context, loadID string) ([]db.Bid, error)
	GetTruckerBids(ctx context.Context, truckerID string, limit, offset int) ([]db.Bid, error)

	CreateNotification(ctx context.Context, n *db.Notification) error
	GetAccountNotifications(ctx context.Context, accountID string, limit, offset int) ([]db.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}
