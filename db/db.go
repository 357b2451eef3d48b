package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Account (broker or trucker)
type Account struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	Role      string    `db:"role" json:"role"`
	Tier      string    `db:"tier" json:"tier"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func (s *Storage) CreateAccount(ctx context.Context, a *Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	query := `
        INSERT INTO accounts (id, email, name, phone, role, tier)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at`
	return s.db.QueryRowContext(ctx, query, a.ID, a.Email, a.Name, a.Phone, a.Role, a.Tier).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (s *Storage) GetAccount(ctx context.Context, id string) (*Account, error) {
	a := &Account{}
	query := `SELECT * FROM accounts WHERE id=$1`
	err := s.db.GetContext(ctx, a, query, id)
	return a, err
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	a := &Account{}
	query := `SELECT * FROM accounts WHERE email=$1`
	err := s.db.GetContext(ctx, a, query, email)
	return a, err
}

func (s *Storage) UpdateAccountTier(ctx context.Context, id, tier string) error {
	query := `UPDATE accounts SET tier=$1, updated_at=NOW() WHERE id=$2`
	_, err := s.db.ExecContext(ctx, query, tier, id)
	return err
}

// Load (shipment posting)
type Load struct {
	ID               string    `db:"id" json:"id"`
	BrokerID         string    `db:"broker_id" json:"brokerId"`
	LoadType         string    `db:"load_type" json:"loadType"`
	WeightKg         float64   `db:"weight_kg" json:"weightKg"`
	PickupLocation   string    `db:"pickup_location" json:"pickupLocation"`
	DeliveryLocation string    `db:"delivery_location" json:"deliveryLocation"`
	PickupDeadline   time.Time `db:"pickup_deadline" json:"pickupDeadline"`
	DeliveryDeadline time.Time `db:"delivery_deadline" json:"deliveryDeadline"`
	BudgetAmount     float64   `db:"budget_amount" json:"budgetAmount"`
	BudgetCurrency   string    `db:"budget_currency" json:"budgetCurrency"`
	BidEnabled       bool      `db:"bid_enabled" json:"bidEnabled"`
	FixedRate        *float64  `db:"fixed_rate" json:"fixedRate"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"-"`
}

func (s *Storage) CreateLoad(ctx context.Context, l *Load) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	query := `
        INSERT INTO loads
            (id, broker_id, load_type, weight_kg, pickup_location, delivery_location,
             pickup_deadline, delivery_deadline, budget_amount, budget_currency,
             bid_enabled, fixed_rate, status)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING created_at, updated_at`
	return s.db.QueryRowContext(ctx, query,
		l.ID, l.BrokerID, l.LoadType, l.WeightKg, l.PickupLocation, l.DeliveryLocation,
		l.PickupDeadline, l.DeliveryDeadline, l.BudgetAmount, l.BudgetCurrency,
		l.BidEnabled, l.FixedRate, l.Status).
		Scan(&l.CreatedAt, &l.UpdatedAt)
}

func (s *Storage) GetLoad(ctx context.Context, id string) (*Load, error) {
	l := &Load{}
	query := `SELECT * FROM loads WHERE id=$1`
	err := s.db.GetContext(ctx, l, query, id)
	return l, err
}

func (s *Storage) UpdateLoad(ctx context.Context, l *Load) error {
	query := `
        UPDATE loads
        SET load_type=$1, weight_kg=$2, pickup_location=$3, delivery_location=$4,
            pickup_deadline=$5, delivery_deadline=$6, budget_amount=$7,
            budget_currency=$8, bid_enabled=$9, fixed_rate=$10, updated_at=NOW()
        WHERE id=$11`
	_, err := s.db.ExecContext(ctx, query,
		l.LoadType, l.WeightKg, l.PickupLocation, l.DeliveryLocation,
		l.PickupDeadline, l.DeliveryDeadline, l.BudgetAmount, l.BudgetCurrency,
		l.BidEnabled, l.FixedRate, l.ID)
	return err
}

func (s *Storage) UpdateLoadStatus(ctx context.Context, id, status string) error {
	query := `UPDATE loads SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := s.db.ExecContext(ctx, query, status, id)
	return err
}

func (s *Storage) GetLoads(ctx context.Context, statuses []string, limit, offset int) ([]Load, error) {
	baseQuery := "SELECT * FROM loads"
	var args []interface{}
	filter := ""

	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i := range statuses {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		filter = fmt.Sprintf(" WHERE status IN (%s)", strings.Join(placeholders, ", "))
		for _, v := range statuses {
			args = append(args, v)
		}
	}

	query := baseQuery + filter + " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	loads := []Load{}
	err := s.db.SelectContext(ctx, &loads, query, args...)
	if err != nil {
		return nil, err
	}
	return loads, nil
}

func (s *Storage) GetBrokerLoads(ctx context.Context, brokerID string, limit, offset int) ([]Load, error) {
	query := `
        SELECT * FROM loads
        WHERE broker_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	loads := []Load{}
	err := s.db.SelectContext(ctx, &loads, query, brokerID, limit, offset)
	return loads, err
}

// Bid (trucker offer against a load)
type Bid struct {
	ID        string    `db:"id" json:"id"`
	LoadID    string    `db:"load_id" json:"loadId"`
	TruckerID string    `db:"trucker_id" json:"truckerId"`
	Amount    float64   `db:"amount" json:"bidAmount"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// BidWithTrucker joins the submitting trucker's public profile fields,
// for the broker's view of a load's bids.
type BidWithTrucker struct {
	Bid
	TruckerName  string `db:"trucker_name" json:"truckerName"`
	TruckerEmail string `db:"trucker_email" json:"truckerEmail"`
	TruckerPhone string `db:"trucker_phone" json:"truckerPhone"`
}

func (s *Storage) CreateBid(ctx context.Context, b *Bid) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	query := `
        INSERT INTO bids (id, load_id, trucker_id, amount, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`
	return s.db.QueryRowContext(ctx, query,
		b.ID, b.LoadID, b.TruckerID, b.Amount, b.Status).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (s *Storage) GetBid(ctx context.Context, id string) (*Bid, error) {
	b := &Bid{}
	query := `SELECT * FROM bids WHERE id=$1`
	err := s.db.GetContext(ctx, b, query, id)
	return b, err
}

func (s *Storage) UpdateBidAmount(ctx context.Context, id string, amount float64) error {
	query := `UPDATE bids SET amount=$1, updated_at=NOW() WHERE id=$2`
	_, err := s.db.ExecContext(ctx, query, amount, id)
	return err
}

func (s *Storage) UpdateBidStatus(ctx context.Context, id, status string) error {
	query := `UPDATE bids SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := s.db.ExecContext(ctx, query, status, id)
	return err
}

func (s *Storage) DeleteBid(ctx context.Context, id string) error {
	query := `DELETE FROM bids WHERE id=$1`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

// GetBidsForLoad returns all bids on a load, newest first, with the
// submitting trucker's contact fields. Broker-side view.
func (s *Storage) GetBidsForLoad(ctx context.Context, loadID string) ([]BidWithTrucker, error) {
	query := `
        SELECT b.*, a.name AS trucker_name, a.email AS trucker_email, a.phone AS trucker_phone
        FROM bids b
        JOIN accounts a ON b.trucker_id = a.id
        WHERE b.load_id = $1
        ORDER BY b.created_at DESC`
	bids := []BidWithTrucker{}
	err := s.db.SelectContext(ctx, &bids, query, loadID)
	return bids, err
}

// GetLoadBidsByAmount returns all bids on a load ascending by amount,
// for the trucker dashboard's own/competing split.
func (s *Storage) GetLoadBidsByAmount(ctx context.Context, loadID string) ([]Bid, error) {
	query := `
        SELECT * FROM bids
        WHERE load_id = $1
        ORDER BY amount ASC, created_at ASC`
	bids := []Bid{}
	err := s.db.SelectContext(ctx, &bids, query, loadID)
	return bids, err
}

func (s *Storage) GetTruckerBids(ctx context.Context, truckerID string, limit, offset int) ([]Bid, error) {
	query := `
        SELECT * FROM bids
        WHERE trucker_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	bids := []Bid{}
	err := s.db.SelectContext(ctx, &bids, query, truckerID, limit, offset)
	return bids, err
}

// Quota counts consumed by the feature access gate. Each counts rows
// created on/after the given instant (start of the calendar month).

func (s *Storage) CountBrokerLoadsSince(ctx context.Context, brokerID string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM loads WHERE broker_id=$1 AND created_at >= $2`
	err := s.db.GetContext(ctx, &count, query, brokerID, since)
	return count, err
}

func (s *Storage) CountTruckerBidsSince(ctx context.Context, truckerID string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM bids WHERE trucker_id=$1 AND created_at >= $2`
	err := s.db.GetContext(ctx, &count, query, truckerID, since)
	return count, err
}

func (s *Storage) CountTruckerPendingBidsSince(ctx context.Context, truckerID string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM bids WHERE trucker_id=$1 AND status='pending' AND created_at >= $2`
	err := s.db.GetContext(ctx, &count, query, truckerID, since)
	return count, err
}

func (s *Storage) CountTruckerAcceptedBidsSince(ctx context.Context, truckerID string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM bids WHERE trucker_id=$1 AND status='accepted' AND created_at >= $2`
	err := s.db.GetContext(ctx, &count, query, truckerID, since)
	return count, err
}

// Notification (best-effort, written by the notifier)
type Notification struct {
	ID        string    `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"accountId"`
	Type      string    `db:"type" json:"type"`
	Message   string    `db:"message" json:"message"`
	LoadID    *string   `db:"load_id" json:"loadId"`
	BidID     *string   `db:"bid_id" json:"bidId"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func (s *Storage) CreateNotification(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	query := `
        INSERT INTO notifications (id, account_id, type, message, load_id, bid_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at`
	return s.db.QueryRowContext(ctx, query,
		n.ID, n.AccountID, n.Type, n.Message, n.LoadID, n.BidID).
		Scan(&n.CreatedAt)
}

func (s *Storage) GetAccountNotifications(ctx context.Context, accountID string, limit, offset int) ([]Notification, error) {
	query := `
        SELECT * FROM notifications
        WHERE account_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	notifications := []Notification{}
	err := s.db.SelectContext(ctx, &notifications, query, accountID, limit, offset)
	return notifications, err
}

func (s *Storage) MarkNotificationRead(ctx context.Context, id string) error {
	query := `UPDATE notifications SET read=true WHERE id=$1`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}
