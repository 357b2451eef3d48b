// Package notify writes best-effort notification rows. Nothing here is a
// correctness dependency: a failed send is logged and dropped.
package notify

import (
	"context"
	"log"

	"freightboard/db"
)

type Store interface {
	CreateNotification(ctx context.Context, n *db.Notification) error
}

type Notifier struct {
	store Store
}

func NewNotifier(store Store) *Notifier {
	return &Notifier{store: store}
}

// Notify records one notification. Satisfies bidflow.NotificationSink.
func (n *Notifier) Notify(ctx context.Context, accountID, kind, message string, loadID, bidID *string) error {
	return n.store.CreateNotification(ctx, &db.Notification{
		AccountID: accountID,
		Type:      kind,
		Message:   message,
		LoadID:    loadID,
		BidID:     bidID,
	})
}

func (n *Notifier) send(ctx context.Context, accountID, kind, message string, loadID, bidID *string) {
	if err := n.Notify(ctx, accountID, kind, message, loadID, bidID); err != nil {
		log.Printf("notify: %s for account %s failed: %v", kind, accountID, err)
	}
}

// Load/bid helpers.

func (n *Notifier) BidReceived(ctx context.Context, brokerID, loadID, bidID string) {
	n.send(ctx, brokerID, "bid_received", "A new bid was placed on your load", &loadID, &bidID)
}

func (n *Notifier) BidWithdrawn(ctx context.Context, brokerID, loadID string) {
	n.send(ctx, brokerID, "bid_withdrawn", "A bid on your load was withdrawn", &loadID, nil)
}

func (n *Notifier) LoadStatusChanged(ctx context.Context, accountID, loadID, status string) {
	n.send(ctx, accountID, "load_status", "Load status changed to "+status, &loadID, nil)
}

// Account-event helpers.

func (n *Notifier) EmailVerified(ctx context.Context, accountID string) {
	n.send(ctx, accountID, "email_verified", "Your email address was verified", nil, nil)
}

func (n *Notifier) PasswordChanged(ctx context.Context, accountID string) {
	n.send(ctx, accountID, "password_changed", "Your password was changed", nil, nil)
}

func (n *Notifier) ProfileUpdated(ctx context.Context, accountID string) {
	n.send(ctx, accountID, "profile_updated", "Your profile was updated", nil, nil)
}

func (n *Notifier) SecurityAlert(ctx context.Context, accountID, message string) {
	n.send(ctx, accountID, "security_alert", message, nil, nil)
}
