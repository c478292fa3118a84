package client

import (
	"context"
	"fmt"
	"net/url"
)

// PlanService handles plan catalog operations
type PlanService struct {
	client *Client
}

// List returns the plan catalog
func (s *PlanService) List(ctx context.Context) ([]Plan, error) {
	var out struct {
		Plans []Plan `json:"plans"`
	}
	if err := s.client.doRequest(ctx, "GET", APIPrefix+"/plans", nil, &out); err != nil {
		return nil, err
	}
	return out.Plans, nil
}

// Get retrieves a single plan by ID
func (s *PlanService) Get(ctx context.Context, id string) (*Plan, error) {
	var p Plan
	if err := s.client.doRequest(ctx, "GET", fmt.Sprintf("%s/plans/%s", APIPrefix, url.PathEscape(id)), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Limits returns the caller's listing quota
func (s *PlanService) Limits(ctx context.Context) (*PlanLimits, error) {
	var limits PlanLimits
	if err := s.client.doRequest(ctx, "GET", APIPrefix+"/payments/plans/limits", nil, &limits); err != nil {
		return nil, err
	}
	return &limits, nil
}
