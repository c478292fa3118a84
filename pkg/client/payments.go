package client

import (
	"context"
	"fmt"
	"io"
	"net/url"
)

// ReceiptField is the multipart field the API reads receipts from
const ReceiptField = "receipt"

// PaymentService handles PIX payment operations
type PaymentService struct {
	client *Client
}

// Create starts a PIX payment for a plan
func (s *PaymentService) Create(ctx context.Context, planID string) (*PaymentInstructions, error) {
	req := map[string]string{"plan_id": planID}

	var out PaymentInstructions
	if err := s.client.doRequest(ctx, "POST", APIPrefix+"/payments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PixInfo returns the PIX receiver
func (s *PaymentService) PixInfo(ctx context.Context) (*PixInfo, error) {
	var info PixInfo
	if err := s.client.doRequest(ctx, "GET", APIPrefix+"/payments/pix-info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListMine retrieves the caller's payments, optionally filtered by status
func (s *PaymentService) ListMine(ctx context.Context, status string) ([]Payment, error) {
	query := url.Values{}
	query.Set("status", status)

	var payments []Payment
	if err := s.client.doRequest(ctx, "GET", withQuery(APIPrefix+"/payments/mine", query), nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// CurrentPlan returns the plan the caller holds
func (s *PaymentService) CurrentPlan(ctx context.Context) (*CurrentPlan, error) {
	var cp CurrentPlan
	if err := s.client.doRequest(ctx, "GET", APIPrefix+"/payments/current-plan", nil, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// UploadReceipt attaches a proof of transfer to a payment
func (s *PaymentService) UploadReceipt(ctx context.Context, id, filename string, content io.Reader) (*Payment, error) {
	var p Payment
	if err := s.client.doUpload(ctx, paymentPath(id)+"/receipt", ReceiptField, filename, content, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Cancel cancels an open payment
func (s *PaymentService) Cancel(ctx context.Context, id string) (*Payment, error) {
	var p Payment
	if err := s.client.doRequest(ctx, "POST", paymentPath(id)+"/cancel", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AdminList retrieves every payment, optionally filtered (admin only)
func (s *PaymentService) AdminList(ctx context.Context, status, userID string) ([]Payment, error) {
	query := url.Values{}
	query.Set("status", status)
	query.Set("user_id", userID)

	var payments []Payment
	if err := s.client.doRequest(ctx, "GET", withQuery(APIPrefix+"/admin/payments", query), nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// PendingCount returns how many receipts wait for review (admin only)
func (s *PaymentService) PendingCount(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := s.client.doRequest(ctx, "GET", APIPrefix+"/admin/payments/pending-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Review approves or rejects a receipt (admin only)
func (s *PaymentService) Review(ctx context.Context, id string, approved bool, notes string) (*ReviewResult, error) {
	req := ReviewRequest{Approved: &approved, Notes: notes}

	var res ReviewResult
	if err := s.client.doRequest(ctx, "POST", adminPaymentPath(id)+"/review", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Stats returns the admin payment overview
func (s *PaymentService) Stats(ctx context.Context) (*PaymentStats, error) {
	var stats PaymentStats
	if err := s.client.doRequest(ctx, "GET", APIPrefix+"/admin/payments/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func paymentPath(id string) string {
	return fmt.Sprintf("%s/payments/%s", APIPrefix, url.PathEscape(id))
}

func adminPaymentPath(id string) string {
	return fmt.Sprintf("%s/admin/payments/%s", APIPrefix, url.PathEscape(id))
}
