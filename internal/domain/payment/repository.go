package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imovlocal/backend/internal/domain/user"
)

// Repository defines the interface for payment data access
type Repository interface {
	// Create inserts a payment. A second open payment for the same user is
	// a Conflict.
	Create(ctx context.Context, p *Payment) error

	// GetByID retrieves a payment by ID
	GetByID(ctx context.Context, id string) (*Payment, error)

	// List returns payments matching filter, newest first
	List(ctx context.Context, filter Filter) ([]*Payment, error)

	// ListOpenByUser returns the user's pending or awaiting payments
	ListOpenByUser(ctx context.Context, userID string) ([]*Payment, error)

	// LatestApproved returns the user's most recently approved payment or nil
	LatestApproved(ctx context.Context, userID string) (*Payment, error)

	// Transition moves a payment to status `to` if it is currently in one of
	// `from`. It reports whether the row changed.
	Transition(ctx context.Context, id string, from []Status, to Status, now time.Time) (bool, error)

	// AttachReceipt stores the receipt URL and moves the payment to
	// awaiting_approval if it still accepts receipts
	AttachReceipt(ctx context.Context, id, receiptURL string, now time.Time) (bool, error)

	// Approve marks an awaiting payment approved and writes the plan
	// activation onto the payer in one transaction
	Approve(ctx context.Context, id, adminID, notes string, now time.Time, activation user.PlanActivation) error

	// Reject marks an awaiting payment rejected
	Reject(ctx context.Context, id, adminID, notes string, now time.Time) error

	// CountByStatus counts payments per status
	CountByStatus(ctx context.Context) (map[Status]int64, error)

	// Revenue sums approved amounts, optionally only those approved since
	Revenue(ctx context.Context, since *time.Time) (decimal.Decimal, error)
}
