package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/imovlocal/backend/internal/api/dto"
	"github.com/imovlocal/backend/internal/domain/plan"
	"github.com/imovlocal/backend/internal/domain/property"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/services"
	"github.com/imovlocal/backend/internal/testutil"
	"github.com/imovlocal/backend/internal/worker"
)

func TestPlanHandler(t *testing.T) {
	users := testutil.NewMockUserRepository()
	props := testutil.NewMockPropertyRepository()
	owner := testutil.NewUser("owner", user.TypeParticular)
	admin := testutil.NewUser("admin", user.TypeAdmin)
	users.Add(owner, admin)
	props.Create(context.Background(), &property.Property{OwnerID: owner.ID, Title: "Casa", PropertyType: "Casa", Price: 400000})

	handler := NewPlanHandler(services.NewPlanService(users, props), testutil.NewTestLogger())

	t.Run("list", func(t *testing.T) {
		rr, env := serve(t, http.MethodGet, "/plans", "/plans", handler.List, nil, nil)
		var out dto.PlanListDTO
		decodeData(t, env, &out)
		if rr.Code != http.StatusOK || len(out.Plans) != len(plan.All()) {
			t.Errorf("plans = %d (status %d), want %d", len(out.Plans), rr.Code, len(plan.All()))
		}
	})

	t.Run("get", func(t *testing.T) {
		rr, env := serve(t, http.MethodGet, "/plans/{planID}", "/plans/corretor_trimestral", handler.Get, nil, nil)
		var p plan.Plan
		decodeData(t, env, &p)
		if rr.Code != http.StatusOK || p.ID != "corretor_trimestral" {
			t.Errorf("plan = %+v (status %d)", p, rr.Code)
		}

		rr, _ = serve(t, http.MethodGet, "/plans/{planID}", "/plans/platinum", handler.Get, nil, nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("unknown plan status = %d, want 404", rr.Code)
		}
	})

	limitTests := []struct {
		name          string
		user          *user.User
		wantCanCreate bool
		wantUnlimited bool
	}{
		{name: "free owner at cap", user: owner, wantCanCreate: false},
		{name: "admin", user: admin, wantCanCreate: true, wantUnlimited: true},
	}
	for _, tt := range limitTests {
		t.Run("limits "+tt.name, func(t *testing.T) {
			rr, env := serve(t, http.MethodGet, "/payments/plans/limits", "/payments/plans/limits", handler.Limits, tt.user, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
			}
			var limits plan.Limits
			decodeData(t, env, &limits)
			if limits.CanCreate != tt.wantCanCreate || limits.Unlimited != tt.wantUnlimited {
				t.Errorf("limits = %+v", limits)
			}
		})
	}

	t.Run("limits anonymous", func(t *testing.T) {
		rr, _ := serve(t, http.MethodGet, "/payments/plans/limits", "/payments/plans/limits", handler.Limits, nil, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})
}

type stubPinger struct{ err error }

func (s stubPinger) PingContext(ctx context.Context) error { return s.err }

type stubSchedulerState bool

func (s stubSchedulerState) IsRunning() bool { return bool(s) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		scheduler     SchedulerState
		wantStatus    int
		wantScheduler string
	}{
		{name: "database up", scheduler: stubSchedulerState(true), wantStatus: http.StatusOK, wantScheduler: "running"},
		{name: "scheduler disabled", scheduler: nil, wantStatus: http.StatusOK, wantScheduler: "disabled"},
		{name: "scheduler stopped", scheduler: stubSchedulerState(false), wantStatus: http.StatusOK, wantScheduler: "disabled"},
		{name: "database down", err: errors.New("connection refused"), wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(stubPinger{err: tt.err}, tt.scheduler, "local", testutil.NewTestLogger())

			rr, _ := serve(t, http.MethodGet, "/health", "/health", handler.Healthz, nil, nil)
			if rr.Code != http.StatusOK {
				t.Errorf("liveness status = %d, want 200", rr.Code)
			}

			rr, env := serve(t, http.MethodGet, "/ready", "/ready", handler.Readyz, nil, nil)
			if rr.Code != tt.wantStatus {
				t.Errorf("readiness status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.err != nil {
				if env.Error.Code != "SERVICE_UNAVAILABLE" {
					t.Errorf("error code = %q", env.Error.Code)
				}
				return
			}
			var ready map[string]string
			if err := json.Unmarshal(env.Data, &ready); err != nil {
				t.Fatalf("decode readiness: %v", err)
			}
			if ready["scheduler"] != tt.wantScheduler || ready["receipt_storage"] != "local" {
				t.Errorf("readiness = %v", ready)
			}
		})
	}
}

type stubSweeper struct{ calls int }

func (s *stubSweeper) RunOnce(ctx context.Context) *worker.SweepResult {
	s.calls++
	return &worker.SweepResult{Expired: 2, ExpiringSoon: 1, NotificationsSent: 3}
}

func TestSchedulerHandler_Run(t *testing.T) {
	sweeper := &stubSweeper{}
	handler := NewSchedulerHandler(sweeper, testutil.NewTestLogger())

	rr, env := serve(t, http.MethodPost, "/admin/scheduler/run", "/admin/scheduler/run", handler.Run,
		testutil.NewUser("admin", user.TypeAdmin), nil)
	if rr.Code != http.StatusOK || sweeper.calls != 1 {
		t.Fatalf("status = %d, calls = %d", rr.Code, sweeper.calls)
	}
	var res worker.SweepResult
	decodeData(t, env, &res)
	if res.Expired != 2 || res.NotificationsSent != 3 {
		t.Errorf("result = %+v", res)
	}
}
