package services

import (
	"context"

	"github.com/imovlocal/backend/internal/domain/plan"
	"github.com/imovlocal/backend/internal/domain/property"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/errors"
)

// PlanService implements plan.Service
type PlanService struct {
	users      user.Repository
	properties property.Repository
}

// NewPlanService creates a new plan service
func NewPlanService(users user.Repository, properties property.Repository) *PlanService {
	return &PlanService{users: users, properties: properties}
}

// List returns the plan catalog
func (s *PlanService) List(ctx context.Context) []plan.Plan {
	return plan.All()
}

// Get looks a plan up by ID
func (s *PlanService) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, ok := plan.Get(id)
	if !ok {
		return nil, errors.NotFound("Plan")
	}
	return &p, nil
}

// CheckLimits compares the user's active listing count with their cap.
// Admins have no cap; accounts without a stored quota get the free tier.
func (s *PlanService) CheckLimits(ctx context.Context, userID string) (*plan.Limits, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.properties.CountActiveByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	limits := &plan.Limits{
		PlanType:      u.PlanType,
		ListingCount:  count,
		MaxListings:   u.MaxListings,
		MaxPhotos:     u.MaxPhotos,
		PlanExpiresAt: u.PlanExpiresAt,
	}
	if u.IsAdmin() {
		limits.Unlimited = true
		limits.CanCreate = true
		return limits, nil
	}

	if limits.MaxListings <= 0 {
		limits.MaxListings = plan.FreeMaxListings
	}
	if limits.MaxPhotos <= 0 {
		limits.MaxPhotos = plan.FreeMaxPhotos
	}
	limits.Remaining = int64(limits.MaxListings) - count
	if limits.Remaining < 0 {
		limits.Remaining = 0
	}
	limits.CanCreate = limits.Remaining > 0
	return limits, nil
}
