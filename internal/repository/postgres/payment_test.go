package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imovlocal/backend/internal/domain/payment"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/errors"
	"github.com/imovlocal/backend/internal/repository/postgres"
	"github.com/imovlocal/backend/internal/testutil"
)

type paymentRepos struct {
	users    user.Repository
	payments payment.Repository
}

func newPaymentRepos(t *testing.T) paymentRepos {
	t.Helper()
	db := testutil.NewTestDB(t)
	r := paymentRepos{users: postgres.NewUserRepository(db), payments: postgres.NewPaymentRepository(db)}
	for _, id := range []string{"u1", "u2"} {
		if err := r.users.Create(context.Background(), testutil.NewUser(id, user.TypeCorretor)); err != nil {
			t.Fatalf("user Create() error = %v", err)
		}
	}
	return r
}

func newPayment(userID string) *payment.Payment {
	return &payment.Payment{
		UserID:       userID,
		UserName:     "User " + userID,
		UserEmail:    userID + "@example.com",
		UserType:     user.TypeCorretor,
		PlanID:       "corretor_trimestral",
		PlanName:     "Plano Corretor Trimestral",
		Amount:       decimal.RequireFromString("197.90"),
		DurationDays: 90,
		Status:       payment.StatusPending,
		ExpiresAt:    time.Now().UTC().Add(48 * time.Hour),
	}
}

func TestPaymentRepository_OneOpenPaymentPerUser(t *testing.T) {
	r := newPaymentRepos(t)
	ctx := context.Background()

	first := newPayment("u1")
	if err := r.payments.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := r.payments.Create(ctx, newPayment("u1")); !errors.IsConflict(err) {
		t.Errorf("second open Create() error = %v, want conflict", err)
	}
	if err := r.payments.Create(ctx, newPayment("u2")); err != nil {
		t.Errorf("Create() for another user error = %v", err)
	}

	changed, err := r.payments.Transition(ctx, first.ID, []payment.Status{payment.StatusPending}, payment.StatusCancelled, time.Now())
	if err != nil || !changed {
		t.Fatalf("Transition() = %v, %v", changed, err)
	}
	if changed, _ := r.payments.Transition(ctx, first.ID, []payment.Status{payment.StatusPending}, payment.StatusExpired, time.Now()); changed {
		t.Error("Transition() from a stale status changed the row")
	}

	second := newPayment("u1")
	if err := r.payments.Create(ctx, second); err != nil {
		t.Fatalf("Create() after cancel error = %v", err)
	}
	open, err := r.payments.ListOpenByUser(ctx, "u1")
	if err != nil || len(open) != 1 || open[0].ID != second.ID {
		t.Errorf("ListOpenByUser() = %+v, %v", open, err)
	}
}

func TestPaymentRepository_ReceiptAndReview(t *testing.T) {
	r := newPaymentRepos(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	p := newPayment("u1")
	r.payments.Create(ctx, p)

	changed, err := r.payments.AttachReceipt(ctx, p.ID, "/uploads/receipts/x.png", now)
	if err != nil || !changed {
		t.Fatalf("AttachReceipt() = %v, %v", changed, err)
	}
	if changed, _ := r.payments.AttachReceipt(ctx, p.ID, "/uploads/receipts/y.png", now); changed {
		t.Error("AttachReceipt() while awaiting approval changed the row")
	}

	if err := r.payments.Reject(ctx, p.ID, "admin", "Ilegível", now); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	got, _ := r.payments.GetByID(ctx, p.ID)
	if got.Status != payment.StatusRejected || got.AdminNotes != "Ilegível" || got.ApprovedBy != "admin" || got.ReceiptURL != "/uploads/receipts/x.png" {
		t.Errorf("after reject = %+v", got)
	}

	// a rejected payment cannot reopen while another one is open
	other := newPayment("u1")
	if err := r.payments.Create(ctx, other); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := r.payments.AttachReceipt(ctx, p.ID, "/uploads/receipts/z.png", now); !errors.IsConflict(err) {
		t.Errorf("AttachReceipt() with another open payment error = %v, want conflict", err)
	}
	r.payments.Transition(ctx, other.ID, payment.OpenStatuses, payment.StatusCancelled, now)

	if changed, err := r.payments.AttachReceipt(ctx, p.ID, "/uploads/receipts/z.png", now); err != nil || !changed {
		t.Fatalf("AttachReceipt() after rejection = %v, %v", changed, err)
	}

	planExpires := now.AddDate(0, 0, 90)
	activation := user.PlanActivation{PlanType: user.PlanTrimestral, ExpiresAt: planExpires, MaxListings: 100, MaxPhotos: 20}
	if err := r.payments.Approve(ctx, p.ID, "admin", "ok", now, activation); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	got, _ = r.payments.GetByID(ctx, p.ID)
	if got.Status != payment.StatusApproved || got.ApprovedAt == nil || !got.ApprovedAt.Equal(now) ||
		got.PlanExpiresAt == nil || !got.PlanExpiresAt.Equal(planExpires) {
		t.Errorf("after approve = %+v", got)
	}
	u, _ := r.users.GetByID(ctx, "u1")
	if u.PlanType != user.PlanTrimestral || u.MaxListings != 100 || u.MaxPhotos != 20 ||
		u.Status != user.StatusActive || u.PlanExpiresAt == nil || !u.PlanExpiresAt.Equal(planExpires) {
		t.Errorf("user after approve = %+v", u)
	}

	if err := r.payments.Approve(ctx, p.ID, "admin", "again", now, activation); !errors.IsValidation(err) {
		t.Errorf("second Approve() error = %v, want validation", err)
	}

	latest, err := r.payments.LatestApproved(ctx, "u1")
	if err != nil || latest == nil || latest.ID != p.ID {
		t.Errorf("LatestApproved() = %+v, %v", latest, err)
	}
	if none, err := r.payments.LatestApproved(ctx, "u2"); err != nil || none != nil {
		t.Errorf("LatestApproved(u2) = %+v, %v; want nil", none, err)
	}
}

func TestPaymentRepository_ApproveIsAtomic(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewPaymentRepository(db)
	ctx := context.Background()

	// payer row is missing so the plan activation fails
	p := newPayment("ghost")
	repo.Create(ctx, p)
	repo.AttachReceipt(ctx, p.ID, "/uploads/receipts/x.png", time.Now())

	err := repo.Approve(ctx, p.ID, "admin", "", time.Now(), user.PlanActivation{PlanType: user.PlanAnual, ExpiresAt: time.Now()})
	if !errors.IsNotFound(err) {
		t.Fatalf("Approve() error = %v, want not found", err)
	}
	got, _ := repo.GetByID(ctx, p.ID)
	if got.Status != payment.StatusAwaitingApproval {
		t.Errorf("status = %s, want awaiting_approval after rollback", got.Status)
	}
}

func TestPaymentRepository_ListCountRevenue(t *testing.T) {
	r := newPaymentRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	approvedOld := newPayment("u1")
	r.payments.Create(ctx, approvedOld)
	r.payments.AttachReceipt(ctx, approvedOld.ID, "/r/a.png", now)
	r.payments.Approve(ctx, approvedOld.ID, "admin", "", now.AddDate(0, 0, -60), user.PlanActivation{PlanType: user.PlanTrimestral, ExpiresAt: now})

	approvedNew := newPayment("u2")
	approvedNew.Amount = decimal.RequireFromString("497.90")
	r.payments.Create(ctx, approvedNew)
	r.payments.AttachReceipt(ctx, approvedNew.ID, "/r/b.png", now)
	r.payments.Approve(ctx, approvedNew.ID, "admin", "", now, user.PlanActivation{PlanType: user.PlanAnual, ExpiresAt: now.AddDate(1, 0, 0)})

	time.Sleep(2 * time.Millisecond)
	pending := newPayment("u1")
	r.payments.Create(ctx, pending)

	counts, err := r.payments.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	if counts[payment.StatusApproved] != 2 || counts[payment.StatusPending] != 1 || counts[payment.StatusExpired] != 0 {
		t.Errorf("CountByStatus() = %v", counts)
	}
	if len(counts) != len(payment.AllStatuses) {
		t.Errorf("CountByStatus() has %d keys, want %d", len(counts), len(payment.AllStatuses))
	}

	total, err := r.payments.Revenue(ctx, nil)
	if err != nil || !total.Equal(decimal.RequireFromString("695.80")) {
		t.Errorf("Revenue(all) = %s, %v", total, err)
	}
	since := now.AddDate(0, 0, -30)
	monthly, _ := r.payments.Revenue(ctx, &since)
	if !monthly.Equal(decimal.RequireFromString("497.90")) {
		t.Errorf("Revenue(30d) = %s", monthly)
	}

	mine, _ := r.payments.List(ctx, payment.Filter{UserID: "u1"})
	if len(mine) != 2 || mine[0].ID != pending.ID {
		t.Errorf("List(u1) = %+v, want newest first", mine)
	}
	approved, _ := r.payments.List(ctx, payment.Filter{Status: payment.StatusApproved, Limit: 1})
	if len(approved) != 1 {
		t.Errorf("List(approved, limit 1) = %d", len(approved))
	}
	if !mine[1].Amount.Equal(decimal.RequireFromString("197.90")) {
		t.Errorf("Amount = %s, want 197.90", mine[1].Amount)
	}
}
