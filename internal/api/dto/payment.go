package dto

import (
	"time"

	"github.com/imovlocal/backend/internal/domain/payment"
	"github.com/imovlocal/backend/internal/domain/plan"
)

// CreatePaymentRequest starts a PIX payment for a plan
type CreatePaymentRequest struct {
	PlanID string `json:"plan_id" validate:"required,max=50"`
}

// PixInfoDTO is the PIX receiver the payer transfers to
type PixInfoDTO struct {
	Key             string `json:"key"`
	KeyType         string `json:"key_type"`
	BeneficiaryName string `json:"beneficiary_name"`
}

// PaymentInstructionsDTO tells the payer how to complete the transfer
type PaymentInstructionsDTO struct {
	Payment   *payment.Payment `json:"payment"`
	Pix       PixInfoDTO       `json:"pix"`
	ExpiresAt time.Time        `json:"expires_at"`
	NextStep  string           `json:"next_step"`
}

// ReviewPaymentRequest is an admin decision on a receipt
type ReviewPaymentRequest struct {
	Approved *bool  `json:"approved" validate:"required"`
	Notes    string `json:"admin_notes,omitempty" validate:"omitempty,max=1000"`
}

// ToReview converts the request to the service review
func (r ReviewPaymentRequest) ToReview() payment.Review {
	return payment.Review{Approved: r.Approved != nil && *r.Approved, Notes: r.Notes}
}

// ReviewPaymentResponse is returned after an admin decision
type ReviewPaymentResponse struct {
	Message       string           `json:"message"`
	Payment       *payment.Payment `json:"payment"`
	PlanExpiresAt *time.Time       `json:"plan_expires_at,omitempty"`
}

// PendingCountDTO is the number of receipts waiting for review
type PendingCountDTO struct {
	Count int64 `json:"count"`
}

// PlanListDTO wraps the plan catalog
type PlanListDTO struct {
	Plans []plan.Plan `json:"plans"`
}
