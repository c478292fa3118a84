package services

import (
	"context"
	"testing"

	"github.com/imovlocal/backend/internal/domain/property"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/errors"
	"github.com/imovlocal/backend/internal/testutil"
)

func TestPlanService_Catalog(t *testing.T) {
	service := NewPlanService(testutil.NewMockUserRepository(), testutil.NewMockPropertyRepository())
	ctx := context.Background()

	plans := service.List(ctx)
	if len(plans) != 3 {
		t.Fatalf("List() = %d plans, want 3", len(plans))
	}

	p, err := service.Get(ctx, "imobiliaria_anual")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.DurationDays != 365 || p.UserType != user.TypeImobiliaria {
		t.Errorf("Get() = %+v", p)
	}

	if _, err := service.Get(ctx, "platinum"); !errors.IsNotFound(err) {
		t.Errorf("Get(unknown) error = %v, want not found", err)
	}
}

func TestPlanService_CheckLimits(t *testing.T) {
	tests := []struct {
		name          string
		user          func() *user.User
		active        int
		paused        int
		wantMax       int
		wantRemaining int64
		wantCreate    bool
		wantUnlimited bool
	}{
		{
			name:          "free user with room",
			user:          func() *user.User { return testutil.NewUser("u", user.TypeParticular) },
			wantMax:       1,
			wantRemaining: 1,
			wantCreate:    true,
		},
		{
			name:          "free user at the cap",
			user:          func() *user.User { return testutil.NewUser("u", user.TypeParticular) },
			active:        1,
			paused:        2,
			wantMax:       1,
			wantRemaining: 0,
		},
		{
			name: "missing quota falls back to free tier",
			user: func() *user.User {
				u := testutil.NewUser("u", user.TypeParticular)
				u.MaxListings = 0
				u.MaxPhotos = 0
				return u
			},
			wantMax:       1,
			wantRemaining: 1,
			wantCreate:    true,
		},
		{
			name: "over the cap is clamped",
			user: func() *user.User {
				u := testutil.NewUser("u", user.TypeCorretor)
				u.PlanType = user.PlanTrimestral
				u.MaxListings = 2
				return u
			},
			active:        5,
			wantMax:       2,
			wantRemaining: 0,
		},
		{
			name:          "admin is unlimited",
			user:          func() *user.User { return testutil.NewUser("u", user.TypeAdmin) },
			active:        50,
			wantMax:       1,
			wantCreate:    true,
			wantUnlimited: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := testutil.NewMockUserRepository()
			props := testutil.NewMockPropertyRepository()
			users.Add(tt.user())
			ctx := context.Background()
			for i := 0; i < tt.active; i++ {
				props.Create(ctx, &property.Property{OwnerID: "u"})
			}
			for i := 0; i < tt.paused; i++ {
				props.Create(ctx, &property.Property{OwnerID: "u", Status: property.StatusPaused})
			}

			limits, err := NewPlanService(users, props).CheckLimits(ctx, "u")
			if err != nil {
				t.Fatalf("CheckLimits() error = %v", err)
			}
			if limits.ListingCount != int64(tt.active) {
				t.Errorf("ListingCount = %d, want %d", limits.ListingCount, tt.active)
			}
			if limits.MaxListings != tt.wantMax || limits.Remaining != tt.wantRemaining ||
				limits.CanCreate != tt.wantCreate || limits.Unlimited != tt.wantUnlimited {
				t.Errorf("CheckLimits() = %+v", limits)
			}
		})
	}

	t.Run("unknown user", func(t *testing.T) {
		service := NewPlanService(testutil.NewMockUserRepository(), testutil.NewMockPropertyRepository())
		if _, err := service.CheckLimits(context.Background(), "ghost"); !errors.IsNotFound(err) {
			t.Errorf("CheckLimits() error = %v, want not found", err)
		}
	})
}
