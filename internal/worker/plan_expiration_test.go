package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/imovlocal/backend/internal/domain/notification"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/testutil"
)

// recordingNotifier stores every notification and fails for selected users
type recordingNotifier struct {
	mu     sync.Mutex
	sent   []notification.Notification
	failOn map[string]bool
}

func (n *recordingNotifier) Create(ctx context.Context, userID string, t notification.Type, title, message string, data map[string]interface{}) (*notification.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failOn[userID] {
		return nil, fmt.Errorf("notifier down for %s", userID)
	}
	rec := notification.Notification{UserID: userID, Type: t, Title: title, Message: message, Data: data}
	n.sent = append(n.sent, rec)
	return &rec, nil
}

func (n *recordingNotifier) forUser(userID string) []notification.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notification.Notification
	for _, rec := range n.sent {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out
}

var sweepNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func paidUser(id string, expiresIn time.Duration) *user.User {
	u := testutil.NewUser(id, user.TypeCorretor)
	u.PlanType = user.PlanTrimestral
	u.MaxListings = 100
	u.MaxPhotos = 20
	expires := sweepNow.Add(expiresIn)
	u.PlanExpiresAt = &expires
	return u
}

func newTestScheduler(users *testutil.MockUserRepository, notifier Notifier) *PlanExpirationScheduler {
	s := NewPlanExpirationScheduler(users, notifier, SchedulerOptions{}, testutil.NewTestLogger())
	s.now = testutil.FixedClock(sweepNow)
	return s
}

func TestPlanExpirationScheduler_RemindsOnce(t *testing.T) {
	users := testutil.NewMockUserRepository()
	users.Add(
		paidUser("soon", 3*24*time.Hour),
		paidUser("later", 10*24*time.Hour),
		paidUser("today", 2*time.Hour),
	)
	notifier := &recordingNotifier{}
	s := newTestScheduler(users, notifier)

	res := s.RunOnce(context.Background())
	if res.ExpiringSoon != 2 || res.Expired != 0 || res.NotificationsSent != 2 || res.Errors != 0 {
		t.Fatalf("first RunOnce() = %+v", res)
	}

	got := notifier.forUser("soon")
	if len(got) != 1 || got[0].Type != notification.TypeSystem || got[0].Title != "Seu plano expira em breve" {
		t.Fatalf("reminders for soon = %+v", got)
	}
	if got[0].Data["days_left"] != 3 || got[0].Data["action"] != "renew_plan" {
		t.Errorf("reminder data = %+v", got[0].Data)
	}
	if today := notifier.forUser("today"); len(today) != 1 || today[0].Data["days_left"] != 1 {
		t.Errorf("reminders for today = %+v", today)
	}
	if len(notifier.forUser("later")) != 0 {
		t.Error("user outside the window was reminded")
	}
	if !users.Get("soon").ExpirationNotified {
		t.Error("soon was not flagged")
	}

	res = s.RunOnce(context.Background())
	if res.ExpiringSoon != 0 || res.NotificationsSent != 0 {
		t.Errorf("second RunOnce() = %+v, want no duplicate reminders", res)
	}
	if len(notifier.forUser("soon")) != 1 {
		t.Errorf("soon reminded %d times", len(notifier.forUser("soon")))
	}
}

func TestPlanExpirationScheduler_DemotesExpired(t *testing.T) {
	users := testutil.NewMockUserRepository()
	expired := paidUser("expired", -time.Hour)
	paused := paidUser("paused", -time.Hour)
	paused.Status = user.StatusPaused
	users.Add(expired, paused, paidUser("fine", 60*24*time.Hour))
	notifier := &recordingNotifier{}
	s := newTestScheduler(users, notifier)

	res := s.RunOnce(context.Background())
	if res.Expired != 1 || res.NotificationsSent != 1 {
		t.Fatalf("RunOnce() = %+v", res)
	}

	u := users.Get("expired")
	if u.Status != user.StatusPending {
		t.Errorf("status = %s, want pending", u.Status)
	}
	if u.PlanType != user.PlanTrimestral {
		t.Errorf("plan type changed to %s", u.PlanType)
	}
	got := notifier.forUser("expired")
	if len(got) != 1 || got[0].Title != "Seu plano expirou" || got[0].Data["action"] != "renew_plan" {
		t.Errorf("expiry notifications = %+v", got)
	}
	if users.Get("paused").Status != user.StatusPaused || len(notifier.forUser("paused")) != 0 {
		t.Error("paused user was touched")
	}

	res = s.RunOnce(context.Background())
	if res.Expired != 0 || len(notifier.forUser("expired")) != 1 {
		t.Errorf("second RunOnce() = %+v, want nothing left to expire", res)
	}
}

func TestPlanExpirationScheduler_IsolatesFailures(t *testing.T) {
	users := testutil.NewMockUserRepository()
	users.Add(
		paidUser("a-broken", -time.Hour),
		paidUser("b-ok", -time.Hour),
		paidUser("c-broken", 24*time.Hour),
		paidUser("d-ok", 24*time.Hour),
	)
	notifier := &recordingNotifier{failOn: map[string]bool{"a-broken": true, "c-broken": true}}
	s := newTestScheduler(users, notifier)

	res := s.RunOnce(context.Background())
	if res.Expired != 2 || res.ExpiringSoon != 2 || res.NotificationsSent != 2 || res.Errors != 2 {
		t.Fatalf("RunOnce() = %+v", res)
	}
	if users.Get("a-broken").Status != user.StatusPending {
		t.Error("a-broken was not demoted")
	}
	if len(notifier.forUser("b-ok")) != 1 || len(notifier.forUser("d-ok")) != 1 {
		t.Error("healthy users were not notified")
	}
	// flagged before sending so a failed reminder is not retried
	if !users.Get("c-broken").ExpirationNotified {
		t.Error("c-broken was not flagged")
	}
}

func TestPlanExpirationScheduler_ListFailure(t *testing.T) {
	users := testutil.NewMockUserRepository()
	users.ListError = fmt.Errorf("database unavailable")
	s := newTestScheduler(users, &recordingNotifier{})

	res := s.RunOnce(context.Background())
	if res.Errors != 2 || res.Expired != 0 || res.ExpiringSoon != 0 {
		t.Errorf("RunOnce() = %+v, want one error per sweep", res)
	}
}

func TestDaysLeft(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want int
	}{
		{name: "already past", in: -time.Minute, want: 0},
		{name: "later today", in: 3 * time.Hour, want: 1},
		{name: "exactly two days", in: 48 * time.Hour, want: 2},
		{name: "just over four days", in: 4*24*time.Hour + time.Minute, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := daysLeft(sweepNow, sweepNow.Add(tt.in)); got != tt.want {
				t.Errorf("daysLeft() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPlanExpirationScheduler_StartStop(t *testing.T) {
	users := testutil.NewMockUserRepository()
	users.Add(paidUser("expired", -time.Hour))
	notifier := &recordingNotifier{}
	s := NewPlanExpirationScheduler(users, notifier, SchedulerOptions{InitialDelay: 10 * time.Millisecond}, testutil.NewTestLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start() succeeded")
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(notifier.forUser("expired")) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if len(notifier.forUser("expired")) != 1 {
		t.Error("startup sweep did not run")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	s.Stop()
}

func TestPlanExpirationScheduler_InvalidSpec(t *testing.T) {
	s := NewPlanExpirationScheduler(testutil.NewMockUserRepository(), &recordingNotifier{},
		SchedulerOptions{Spec: "every day"}, testutil.NewTestLogger())
	if err := s.Start(context.Background()); err == nil {
		s.Stop()
		t.Fatal("Start() with invalid spec succeeded")
	}
	if s.IsRunning() {
		t.Error("scheduler running after failed Start")
	}
}
