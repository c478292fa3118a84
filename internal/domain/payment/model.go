package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/imovlocal/backend/internal/domain/user"
)

// Payment is a manual PIX payment for a plan. Payer fields are a snapshot.
type Payment struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	UserName      string          `json:"user_name"`
	UserEmail     string          `json:"user_email"`
	UserType      user.Type       `json:"user_type"`
	PlanID        string          `json:"plan_id"`
	PlanName      string          `json:"plan_name"`
	Amount        decimal.Decimal `json:"amount"`
	DurationDays  int             `json:"duration_days"`
	Status        Status          `json:"status"`
	ReceiptURL    string          `json:"receipt_url,omitempty"`
	AdminNotes    string          `json:"admin_notes,omitempty"`
	ApprovedBy    string          `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	ExpiresAt     time.Time       `json:"expires_at"`
	PlanExpiresAt *time.Time      `json:"plan_expires_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Status is the payment lifecycle status
type Status string

const (
	StatusPending          Status = "pending"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusExpired          Status = "expired"
	StatusCancelled        Status = "cancelled"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []Status{
	StatusPending, StatusAwaitingApproval, StatusApproved,
	StatusRejected, StatusExpired, StatusCancelled,
}

// OpenStatuses may be held by at most one payment per user
var OpenStatuses = []Status{StatusPending, StatusAwaitingApproval}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsOpen reports whether s counts against the single open payment rule
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusAwaitingApproval
}

// AcceptsReceipt reports whether a receipt may be uploaded in s
func (s Status) AcceptsReceipt() bool {
	return s == StatusPending || s == StatusRejected
}

// IsStale reports whether an unpaid request outlived its window
func (p *Payment) IsStale(now time.Time) bool {
	return p.Status == StatusPending && now.After(p.ExpiresAt)
}

// Filter contains listing options
type Filter struct {
	UserID string
	Status Status
	Skip   int
	Limit  int
}

// Receipt is an uploaded proof of transfer
type Receipt struct {
	Filename string
	Data     []byte
}

// Review is an admin decision on a receipt
type Review struct {
	Approved bool
	Notes    string
}

// DefaultRejectionReason is sent to the payer when the admin gives none
const DefaultRejectionReason = "Comprovante inválido ou não identificado."

// ReviewResult is returned after an admin decision
type ReviewResult struct {
	Payment       *Payment   `json:"payment"`
	PlanExpiresAt *time.Time `json:"plan_expires_at,omitempty"`
}

// Stats is the admin overview of payments
type Stats struct {
	ByStatus       map[Status]int64 `json:"by_status"`
	TotalPayments  int64            `json:"total_payments"`
	TotalRevenue   decimal.Decimal  `json:"total_revenue"`
	MonthlyRevenue decimal.Decimal  `json:"monthly_revenue"`
}

// CurrentPlan describes the plan a user holds right now
type CurrentPlan struct {
	PlanType      user.PlanType `json:"plan_type"`
	PlanExpiresAt *time.Time    `json:"plan_expires_at,omitempty"`
	IsActive      bool          `json:"is_active"`
	UserType      user.Type     `json:"user_type"`
	MaxListings   int           `json:"max_listings"`
	MaxPhotos     int           `json:"max_photos"`
	LastPayment   *Payment      `json:"last_payment,omitempty"`
}
