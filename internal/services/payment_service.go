package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/imovlocal/backend/internal/domain/notification"
	"github.com/imovlocal/backend/internal/domain/payment"
	"github.com/imovlocal/backend/internal/domain/plan"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/errors"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/metrics"
	"github.com/imovlocal/backend/internal/pkg/utils"
)

// Defaults used when the configuration leaves them unset
const (
	DefaultPaymentTTL      = 48 * time.Hour
	DefaultMaxReceiptBytes = 10 << 20
)

var allowedReceiptTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// PaymentOptions tunes the payment lifecycle
type PaymentOptions struct {
	RequestTTL      time.Duration
	MaxReceiptBytes int64
}

// PaymentService implements payment.Service
type PaymentService struct {
	repo     payment.Repository
	users    user.Repository
	store    payment.ReceiptStore
	notifier Notifier
	opts     PaymentOptions
	logger   *logger.Logger
	now      func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	repo payment.Repository,
	users user.Repository,
	store payment.ReceiptStore,
	notifier Notifier,
	opts PaymentOptions,
	log *logger.Logger,
) *PaymentService {
	if opts.RequestTTL <= 0 {
		opts.RequestTTL = DefaultPaymentTTL
	}
	if opts.MaxReceiptBytes <= 0 {
		opts.MaxReceiptBytes = DefaultMaxReceiptBytes
	}
	return &PaymentService{
		repo:     repo,
		users:    users,
		store:    store,
		notifier: notifier,
		opts:     opts,
		logger:   log.WithComponent("payments"),
		now:      time.Now,
	}
}

func requireAdmin(u *user.User, action string) error {
	if u == nil || !u.IsAdmin() {
		return errors.Forbidden("Only admins can " + action)
	}
	return nil
}

// expireIfStale moves an unpaid request past its window to expired and
// reports whether it did
func (s *PaymentService) expireIfStale(ctx context.Context, p *payment.Payment, now time.Time) (bool, error) {
	if !p.IsStale(now) {
		return false, nil
	}
	changed, err := s.repo.Transition(ctx, p.ID, []payment.Status{payment.StatusPending}, payment.StatusExpired, now)
	if err != nil {
		return false, err
	}
	if changed {
		p.Status = payment.StatusExpired
		p.UpdatedAt = now
		metrics.RecordPaymentTransition(string(payment.StatusExpired))
		s.logger.With("payment_id", p.ID).Info("Payment request expired")
	}
	return changed, nil
}

// Create opens a pending payment for planID
func (s *PaymentService) Create(ctx context.Context, payer *user.User, planID string) (*payment.Payment, error) {
	p, ok := plan.Get(planID)
	if !ok {
		return nil, errors.ValidationError("Invalid plan", map[string]string{"field": "plan_id", "value": planID})
	}
	if !p.AvailableTo(payer.UserType) {
		return nil, errors.ValidationError(
			fmt.Sprintf("Plan %s is not available for %s accounts", p.ID, payer.UserType),
			map[string]string{"field": "plan_id"})
	}

	now := s.now().UTC()
	open, err := s.repo.ListOpenByUser(ctx, payer.ID)
	if err != nil {
		return nil, err
	}
	for _, existing := range open {
		expired, err := s.expireIfStale(ctx, existing, now)
		if err != nil {
			return nil, err
		}
		if !expired {
			return nil, errors.Conflict("You already have a payment in progress")
		}
	}

	pay := &payment.Payment{
		UserID:       payer.ID,
		UserName:     payer.Name,
		UserEmail:    payer.Email,
		UserType:     payer.UserType,
		PlanID:       p.ID,
		PlanName:     p.Name,
		Amount:       p.Price,
		DurationDays: p.DurationDays,
		Status:       payment.StatusPending,
		ExpiresAt:    now.Add(s.opts.RequestTTL),
	}
	if err := s.repo.Create(ctx, pay); err != nil {
		return nil, err
	}
	metrics.RecordPaymentTransition(string(pay.Status))

	s.logger.WithFields(map[string]interface{}{
		"payment_id": pay.ID,
		"user_id":    payer.ID,
		"plan_id":    p.ID,
	}).Info("Payment created")
	return pay, nil
}

func (s *PaymentService) getOwned(ctx context.Context, paymentID string, payer *user.User) (*payment.Payment, error) {
	p, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payer == nil || p.UserID != payer.ID {
		return nil, errors.Forbidden("This payment belongs to another user")
	}
	return p, nil
}

// UploadReceipt stores a proof of transfer and hands the payment to the admins
func (s *PaymentService) UploadReceipt(ctx context.Context, paymentID string, payer *user.User, receipt payment.Receipt) (*payment.Payment, error) {
	p, err := s.getOwned(ctx, paymentID, payer)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	expired, err := s.expireIfStale(ctx, p, now)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, errors.ValidationError("Payment request has expired, please create a new one",
			map[string]string{"field": "status"})
	}
	if !p.Status.AcceptsReceipt() {
		return nil, errors.ValidationError("Receipts can only be sent for pending or rejected payments",
			map[string]string{"field": "status", "value": string(p.Status)})
	}

	size := int64(len(receipt.Data))
	if size == 0 {
		return nil, errors.ValidationError("Receipt file is empty", map[string]string{"field": "receipt"})
	}
	if size > s.opts.MaxReceiptBytes {
		return nil, errors.ValidationError(
			fmt.Sprintf("Receipt exceeds the %d MB limit", s.opts.MaxReceiptBytes>>20),
			map[string]string{"field": "receipt"})
	}
	mt := mimetype.Detect(receipt.Data)
	if !allowedReceiptTypes[mt.String()] {
		return nil, errors.ValidationError("Receipt must be a JPEG, PNG, WEBP or PDF file",
			map[string]string{"field": "receipt", "value": mt.String()})
	}

	key := fmt.Sprintf("%s_%s%s", p.ID, uuid.NewString()[:8], mt.Extension())
	url, err := s.store.Save(ctx, key, mt.String(), receipt.Data)
	if err != nil {
		return nil, err
	}

	changed, err := s.repo.AttachReceipt(ctx, p.ID, url, now)
	if err == nil && !changed {
		err = errors.ValidationError("Payment no longer accepts receipts", map[string]string{"field": "status"})
	}
	if err != nil {
		s.discardReceipt(ctx, key)
		return nil, err
	}
	p.ReceiptURL = url
	p.Status = payment.StatusAwaitingApproval
	p.UpdatedAt = now
	metrics.RecordPaymentTransition(string(p.Status))

	s.notifyAdmins(ctx, p)

	s.logger.WithFields(map[string]interface{}{
		"payment_id": p.ID,
		"user_id":    payer.ID,
		"mime":       mt.String(),
	}).Info("Receipt uploaded")
	return p, nil
}

// discardReceipt removes a stored file that never got attached
func (s *PaymentService) discardReceipt(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.WithError(err).With("key", key).Warn("Failed to remove unattached receipt")
	}
}

func (s *PaymentService) notifyAdmins(ctx context.Context, p *payment.Payment) {
	admins, err := s.users.ListActiveByTypes(ctx, user.AdminTypes)
	if err != nil {
		s.logger.With("payment_id", p.ID).ErrorWithErr(err, "Failed to list admins for receipt notification")
		return
	}
	for _, a := range admins {
		s.notify(ctx, a.ID, notification.TypePaymentReceipt,
			"Novo comprovante de pagamento",
			fmt.Sprintf("%s enviou o comprovante do %s (R$ %s).", p.UserName, p.PlanName, p.Amount.StringFixed(2)),
			map[string]interface{}{
				"payment_id": p.ID,
				"user_id":    p.UserID,
				"plan_id":    p.PlanID,
				"amount":     p.Amount.StringFixed(2),
			})
	}
}

func (s *PaymentService) notify(ctx context.Context, userID string, t notification.Type, title, message string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Create(ctx, userID, t, title, message, data); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id": userID,
			"type":    t,
		}).ErrorWithErr(err, "Failed to send notification")
	}
}

// Cancel withdraws a payment that has not been reviewed yet
func (s *PaymentService) Cancel(ctx context.Context, paymentID string, payer *user.User) (*payment.Payment, error) {
	p, err := s.getOwned(ctx, paymentID, payer)
	if err != nil {
		return nil, err
	}
	if !p.Status.IsOpen() {
		return nil, errors.ValidationError("Only pending payments can be cancelled",
			map[string]string{"field": "status", "value": string(p.Status)})
	}

	now := s.now().UTC()
	changed, err := s.repo.Transition(ctx, p.ID, payment.OpenStatuses, payment.StatusCancelled, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, errors.ValidationError("Only pending payments can be cancelled", map[string]string{"field": "status"})
	}
	p.Status = payment.StatusCancelled
	p.UpdatedAt = now
	metrics.RecordPaymentTransition(string(p.Status))
	return p, nil
}

// Review approves or rejects a payment awaiting approval. Approval
// activates the plan on the payer in the same transaction.
func (s *PaymentService) Review(ctx context.Context, paymentID string, admin *user.User, review payment.Review) (*payment.ReviewResult, error) {
	if err := requireAdmin(admin, "review payments"); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != payment.StatusAwaitingApproval {
		return nil, errors.ValidationError("Payment is not awaiting approval",
			map[string]string{"field": "status", "value": string(p.Status)})
	}

	now := s.now().UTC()
	if !review.Approved {
		return s.reject(ctx, p, admin, review.Notes, now)
	}

	pl, ok := plan.Get(p.PlanID)
	if !ok {
		return nil, errors.ValidationError("Payment references an unknown plan", map[string]string{"field": "plan_id"})
	}
	planExpiresAt := now.AddDate(0, 0, p.DurationDays)
	activation := user.PlanActivation{
		PlanType:    pl.PlanType(),
		ExpiresAt:   planExpiresAt,
		MaxListings: pl.MaxListings,
		MaxPhotos:   pl.MaxPhotos,
	}
	if err := s.repo.Approve(ctx, p.ID, admin.ID, review.Notes, now, activation); err != nil {
		return nil, err
	}

	p.Status = payment.StatusApproved
	p.ApprovedBy = admin.ID
	p.ApprovedAt = &now
	p.AdminNotes = review.Notes
	p.PlanExpiresAt = &planExpiresAt
	p.UpdatedAt = now
	metrics.RecordPaymentTransition(string(p.Status))

	s.notify(ctx, p.UserID, notification.TypePaymentApproved,
		"Pagamento aprovado!",
		fmt.Sprintf("Seu %s está ativo até %s.", p.PlanName, planExpiresAt.Format("02/01/2006")),
		map[string]interface{}{
			"payment_id":      p.ID,
			"plan_id":         p.PlanID,
			"plan_expires_at": planExpiresAt.Format(time.RFC3339),
		})

	s.logger.WithFields(map[string]interface{}{
		"payment_id": p.ID,
		"admin_id":   admin.ID,
		"user_id":    p.UserID,
	}).Info("Payment approved")
	return &payment.ReviewResult{Payment: p, PlanExpiresAt: &planExpiresAt}, nil
}

func (s *PaymentService) reject(ctx context.Context, p *payment.Payment, admin *user.User, notes string, now time.Time) (*payment.ReviewResult, error) {
	if notes == "" {
		notes = payment.DefaultRejectionReason
	}
	if err := s.repo.Reject(ctx, p.ID, admin.ID, notes, now); err != nil {
		return nil, err
	}

	p.Status = payment.StatusRejected
	p.ApprovedBy = admin.ID
	p.ApprovedAt = &now
	p.AdminNotes = notes
	p.UpdatedAt = now
	metrics.RecordPaymentTransition(string(p.Status))

	s.notify(ctx, p.UserID, notification.TypePaymentRejected,
		"Pagamento não aprovado",
		fmt.Sprintf("Seu comprovante do %s foi recusado. Motivo: %s", p.PlanName, notes),
		map[string]interface{}{
			"payment_id": p.ID,
			"plan_id":    p.PlanID,
			"reason":     notes,
		})

	s.logger.WithFields(map[string]interface{}{
		"payment_id": p.ID,
		"admin_id":   admin.ID,
	}).Info("Payment rejected")
	return &payment.ReviewResult{Payment: p}, nil
}

func (s *PaymentService) expireStale(ctx context.Context, payments []*payment.Payment) error {
	now := s.now().UTC()
	for _, p := range payments {
		if _, err := s.expireIfStale(ctx, p, now); err != nil {
			return err
		}
	}
	return nil
}

// ListMine lists the payer's payments, newest first
func (s *PaymentService) ListMine(ctx context.Context, payer *user.User, status payment.Status) ([]*payment.Payment, error) {
	if status != "" && !status.IsValid() {
		return nil, errors.ValidationError("Invalid status", map[string]string{"field": "status", "value": string(status)})
	}
	payments, err := s.repo.List(ctx, payment.Filter{UserID: payer.ID, Status: status})
	if err != nil {
		return nil, err
	}
	if err := s.expireStale(ctx, payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// CurrentPlan reports the plan the payer holds now. It never changes state.
func (s *PaymentService) CurrentPlan(ctx context.Context, payer *user.User) (*payment.CurrentPlan, error) {
	u, err := s.users.GetByID(ctx, payer.ID)
	if err != nil {
		return nil, err
	}
	last, err := s.repo.LatestApproved(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	active := u.Status == user.StatusActive && (u.PlanType == user.PlanLifetime ||
		(u.PlanType != user.PlanFree && u.PlanExpiresAt != nil && u.PlanExpiresAt.After(now)))

	current := &payment.CurrentPlan{
		PlanType:      u.PlanType,
		PlanExpiresAt: u.PlanExpiresAt,
		IsActive:      active,
		UserType:      u.UserType,
		MaxListings:   u.MaxListings,
		MaxPhotos:     u.MaxPhotos,
		LastPayment:   last,
	}
	if current.MaxListings <= 0 {
		current.MaxListings = plan.FreeMaxListings
	}
	if current.MaxPhotos <= 0 {
		current.MaxPhotos = plan.FreeMaxPhotos
	}
	return current, nil
}

// AdminList lists every payment matching filter
func (s *PaymentService) AdminList(ctx context.Context, admin *user.User, filter payment.Filter) ([]*payment.Payment, error) {
	if err := requireAdmin(admin, "list payments"); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, errors.ValidationError("Invalid status", map[string]string{"field": "status", "value": string(filter.Status)})
	}
	if filter.Limit <= 0 {
		filter.Limit = utils.DefaultLimit
	}
	if filter.Limit > utils.MaxLimit {
		filter.Limit = utils.MaxLimit
	}
	payments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.expireStale(ctx, payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// AdminGet returns any payment
func (s *PaymentService) AdminGet(ctx context.Context, admin *user.User, id string) (*payment.Payment, error) {
	if err := requireAdmin(admin, "view payments"); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.expireIfStale(ctx, p, s.now().UTC()); err != nil {
		return nil, err
	}
	return p, nil
}

// PendingApprovalCount counts receipts waiting for review
func (s *PaymentService) PendingApprovalCount(ctx context.Context, admin *user.User) (int64, error) {
	if err := requireAdmin(admin, "view payments"); err != nil {
		return 0, err
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return 0, err
	}
	return counts[payment.StatusAwaitingApproval], nil
}

// Stats aggregates counts and approved revenue
func (s *PaymentService) Stats(ctx context.Context, admin *user.User) (*payment.Stats, error) {
	if err := requireAdmin(admin, "view payment stats"); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Revenue(ctx, nil)
	if err != nil {
		return nil, err
	}
	since := s.now().UTC().AddDate(0, 0, -30)
	monthly, err := s.repo.Revenue(ctx, &since)
	if err != nil {
		return nil, err
	}

	stats := &payment.Stats{
		ByStatus:       counts,
		TotalRevenue:   total,
		MonthlyRevenue: monthly,
	}
	for _, n := range counts {
		stats.TotalPayments += n
	}
	return stats, nil
}
