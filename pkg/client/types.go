package client

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a purchasable subscription tier
type Plan struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	UserType     string          `json:"user_type"`
	Price        decimal.Decimal `json:"price"`
	DurationDays int             `json:"duration_days"`
	MaxListings  int             `json:"max_listings"`
	MaxPhotos    int             `json:"max_photos"`
	Features     []string        `json:"features"`
}

// PlanLimits reports the caller's listing quota
type PlanLimits struct {
	PlanType      string     `json:"plan_type"`
	ListingCount  int64      `json:"listing_count"`
	MaxListings   int        `json:"max_listings"`
	MaxPhotos     int        `json:"max_photos"`
	Remaining     int64      `json:"remaining"`
	CanCreate     bool       `json:"can_create"`
	Unlimited     bool       `json:"unlimited"`
	PlanExpiresAt *time.Time `json:"plan_expires_at,omitempty"`
}

// Demand is a "looking for" request on the opportunity board
type Demand struct {
	ID            string     `json:"id"`
	CreatorID     string     `json:"creator_id"`
	CreatorName   string     `json:"creator_name"`
	CreatorPhone  string     `json:"creator_phone"`
	CreatorCreci  string     `json:"creator_creci,omitempty"`
	PropertyType  string     `json:"property_type"`
	State         string     `json:"state,omitempty"`
	City          string     `json:"city,omitempty"`
	Neighborhoods []string   `json:"neighborhoods"`
	PriceMin      float64    `json:"price_min"`
	PriceMax      float64    `json:"price_max"`
	MinBedrooms   *int       `json:"min_bedrooms,omitempty"`
	MinGarage     *int       `json:"min_garage,omitempty"`
	MinArea       *float64   `json:"min_area,omitempty"`
	MustHave      string     `json:"must_have,omitempty"`
	Commission    float64    `json:"commission"`
	Status        string     `json:"status"`
	ProposalCount int        `json:"proposal_count"`
	ViewCount     int        `json:"view_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// CreateDemandRequest represents a request to post a demand
type CreateDemandRequest struct {
	PropertyType  string   `json:"property_type"`
	State         string   `json:"state,omitempty"`
	City          string   `json:"city,omitempty"`
	Neighborhoods []string `json:"neighborhoods"`
	PriceMin      float64  `json:"price_min"`
	PriceMax      float64  `json:"price_max"`
	MinBedrooms   *int     `json:"min_bedrooms,omitempty"`
	MinGarage     *int     `json:"min_garage,omitempty"`
	MinArea       *float64 `json:"min_area,omitempty"`
	MustHave      string   `json:"must_have,omitempty"`
	Commission    float64  `json:"commission"`
}

// UpdateDemandRequest represents a partial demand update
type UpdateDemandRequest struct {
	PriceMin   *float64 `json:"price_min,omitempty"`
	PriceMax   *float64 `json:"price_max,omitempty"`
	MustHave   *string  `json:"must_have,omitempty"`
	Commission *float64 `json:"commission,omitempty"`
	Status     *string  `json:"status,omitempty"`
}

// DemandListOptions contains board listing filters
type DemandListOptions struct {
	Status       string
	PropertyType string
	Neighborhood string
	PriceMin     *float64
	PriceMax     *float64
	Skip         int
	Limit        int
}

// Proposal is a partner broker's answer to a demand
type Proposal struct {
	ID            string     `json:"id"`
	DemandID      string     `json:"demand_id"`
	PropertyID    string     `json:"property_id,omitempty"`
	PropertyTitle string     `json:"property_title,omitempty"`
	PropertyPrice *float64   `json:"property_price,omitempty"`
	OffererID     string     `json:"offerer_id"`
	OffererName   string     `json:"offerer_name"`
	OffererPhone  string     `json:"offerer_phone"`
	OffererCreci  string     `json:"offerer_creci,omitempty"`
	Message       string     `json:"message"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// CreateProposalRequest represents a proposal on a demand
type CreateProposalRequest struct {
	Message    string `json:"message"`
	PropertyID string `json:"property_id,omitempty"`
}

// ProposalAction is returned after accepting or rejecting a proposal
type ProposalAction struct {
	Message  string    `json:"message"`
	Proposal *Proposal `json:"proposal"`
}

// DemandStats is the caller's opportunity board summary
type DemandStats struct {
	MyDemands         int64 `json:"my_demands"`
	MyActiveDemands   int64 `json:"my_active_demands"`
	MyProposals       int64 `json:"my_proposals"`
	MyAccepted        int64 `json:"my_accepted_proposals"`
	ReceivedProposals int64 `json:"received_proposals"`
}

// Bucket is one row of a grouped count
type Bucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// BoardReport is the admin overview of the opportunity board
type BoardReport struct {
	TotalDemands      int64            `json:"total_demands"`
	DemandsByStatus   map[string]int64 `json:"demands_by_status"`
	TotalProposals    int64            `json:"total_proposals"`
	AcceptedProposals int64            `json:"accepted_proposals"`
	RecentDemands     []Demand         `json:"recent_demands"`
	TopCreators       []Bucket         `json:"top_creators"`
	ByPropertyType    []Bucket         `json:"by_property_type"`
	TopCities         []Bucket         `json:"top_cities"`
}

// Notification is an in-app message
type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}

// BroadcastRequest is an admin announcement
type BroadcastRequest struct {
	Title           string   `json:"title"`
	Message         string   `json:"message"`
	TargetUserTypes []string `json:"target_user_types"`
}

// BroadcastResult reports how many users a broadcast reached
type BroadcastResult struct {
	Sent   int            `json:"notifications_sent"`
	ByType map[string]int `json:"breakdown_by_type"`
}

// NotificationStats is the admin overview of broadcast reach
type NotificationStats struct {
	ActiveUsersByType map[string]int64 `json:"active_users_by_type"`
	TotalActiveUsers  int64            `json:"total_active_users"`
	TotalBroadcasts   int64            `json:"total_admin_notifications_sent"`
}

// Payment is a manual PIX payment for a plan
type Payment struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	UserName      string          `json:"user_name"`
	UserEmail     string          `json:"user_email"`
	UserType      string          `json:"user_type"`
	PlanID        string          `json:"plan_id"`
	PlanName      string          `json:"plan_name"`
	Amount        decimal.Decimal `json:"amount"`
	DurationDays  int             `json:"duration_days"`
	Status        string          `json:"status"`
	ReceiptURL    string          `json:"receipt_url,omitempty"`
	AdminNotes    string          `json:"admin_notes,omitempty"`
	ApprovedBy    string          `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	ExpiresAt     time.Time       `json:"expires_at"`
	PlanExpiresAt *time.Time      `json:"plan_expires_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PixInfo is the PIX receiver the payer transfers to
type PixInfo struct {
	Key             string `json:"key"`
	KeyType         string `json:"key_type"`
	BeneficiaryName string `json:"beneficiary_name"`
}

// PaymentInstructions tells the payer how to complete the transfer
type PaymentInstructions struct {
	Payment   *Payment  `json:"payment"`
	Pix       PixInfo   `json:"pix"`
	ExpiresAt time.Time `json:"expires_at"`
	NextStep  string    `json:"next_step"`
}

// ReviewRequest is an admin decision on a receipt
type ReviewRequest struct {
	Approved *bool  `json:"approved"`
	Notes    string `json:"admin_notes,omitempty"`
}

// ReviewResult is returned after an admin decision
type ReviewResult struct {
	Message       string     `json:"message"`
	Payment       *Payment   `json:"payment"`
	PlanExpiresAt *time.Time `json:"plan_expires_at,omitempty"`
}

// PaymentStats is the admin overview of payments
type PaymentStats struct {
	ByStatus       map[string]int64 `json:"by_status"`
	TotalPayments  int64            `json:"total_payments"`
	TotalRevenue   decimal.Decimal  `json:"total_revenue"`
	MonthlyRevenue decimal.Decimal  `json:"monthly_revenue"`
}

// CurrentPlan describes the plan the caller holds right now
type CurrentPlan struct {
	PlanType      string     `json:"plan_type"`
	PlanExpiresAt *time.Time `json:"plan_expires_at,omitempty"`
	IsActive      bool       `json:"is_active"`
	UserType      string     `json:"user_type"`
	MaxListings   int        `json:"max_listings"`
	MaxPhotos     int        `json:"max_photos"`
	LastPayment   *Payment   `json:"last_payment,omitempty"`
}

// SweepResult summarizes one plan expiration sweep
type SweepResult struct {
	Expired           int           `json:"expired"`
	ExpiringSoon      int           `json:"expiring_soon"`
	NotificationsSent int           `json:"notifications_sent"`
	Errors            int           `json:"errors"`
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration"`
}

// HealthResponse represents a probe response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}
