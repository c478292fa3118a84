package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imovlocal/backend/internal/domain/payment"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/errors"
)

// PaymentRepository implements payment.Repository
type PaymentRepository struct {
	db *DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *DB) payment.Repository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, user_id, user_name, user_email, user_type, plan_id, plan_name, amount, duration_days,
	status, receipt_url, admin_notes, approved_by, approved_at, expires_at, plan_expires_at, created_at, updated_at`

func scanPayment(row rowScanner) (*payment.Payment, error) {
	var p payment.Payment
	var approvedAt, planExpiresAt sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, &p.UserName, &p.UserEmail, &p.UserType, &p.PlanID, &p.PlanName, &p.Amount,
		&p.DurationDays, &p.Status, &p.ReceiptURL, &p.AdminNotes, &p.ApprovedBy, &approvedAt, &p.ExpiresAt,
		&planExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ApprovedAt = timePtr(approvedAt)
	p.PlanExpiresAt = timePtr(planExpiresAt)
	p.ExpiresAt = p.ExpiresAt.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.UserName, p.UserEmail, p.UserType, p.PlanID, p.PlanName, p.Amount, p.DurationDays,
		p.Status, p.ReceiptURL, p.AdminNotes, p.ApprovedBy, nullTime(p.ApprovedAt), p.ExpiresAt.UTC(),
		nullTime(p.PlanExpiresAt), now, now,
	)
	if isUniqueViolation(err) {
		return errors.Conflict("You already have a payment in progress")
	}
	if err != nil {
		return errors.DatabaseError("Failed to create payment", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Payment")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get payment", err)
	}
	return p, nil
}

func (r *PaymentRepository) List(ctx context.Context, filter payment.Filter) ([]*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE 1 = 1`
	var args []interface{}
	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Skip)
	}
	return r.queryPayments(ctx, query, args...)
}

func (r *PaymentRepository) ListOpenByUser(ctx context.Context, userID string) ([]*payment.Payment, error) {
	return r.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = ? AND status IN (?, ?) ORDER BY created_at DESC`,
		userID, payment.StatusPending, payment.StatusAwaitingApproval,
	)
}

func (r *PaymentRepository) LatestApproved(ctx context.Context, userID string) (*payment.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = ? AND status = ? ORDER BY approved_at DESC LIMIT 1`,
		userID, payment.StatusApproved))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get last approved payment", err)
	}
	return p, nil
}

func (r *PaymentRepository) queryPayments(ctx context.Context, query string, args ...interface{}) ([]*payment.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list payments", err)
	}
	defer rows.Close()

	payments := []*payment.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan payment", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list payments", err)
	}
	return payments, nil
}

func (r *PaymentRepository) Transition(ctx context.Context, id string, from []payment.Status, to payment.Status, now time.Time) (bool, error) {
	args := []interface{}{to, now.UTC(), id}
	for _, s := range from {
		args = append(args, s)
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE payments SET status = ?, updated_at = ? WHERE id = ? AND status IN (%s)`, placeholders(len(from))),
		args...)
	if err != nil {
		return false, errors.DatabaseError("Failed to update payment status", err)
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return false, errors.DatabaseError("Failed to get affected rows", err)
	}
	return changed, nil
}

// AttachReceipt moves pending or rejected payments to awaiting_approval.
// Re-opening a rejected payment fails with Conflict when another one is
// already open for the user.
func (r *PaymentRepository) AttachReceipt(ctx context.Context, id, receiptURL string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET receipt_url = ?, status = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		receiptURL, payment.StatusAwaitingApproval, now.UTC(), id, payment.StatusPending, payment.StatusRejected,
	)
	if isUniqueViolation(err) {
		return false, errors.Conflict("You already have a payment in progress")
	}
	if err != nil {
		return false, errors.DatabaseError("Failed to attach receipt", err)
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return false, errors.DatabaseError("Failed to get affected rows", err)
	}
	return changed, nil
}

// Approve flips the payment and activates the plan on the payer. Clearing
// expiration_notified re-arms the renewal reminder for the new cycle.
func (r *PaymentRepository) Approve(ctx context.Context, id, adminID, notes string, now time.Time, a user.PlanActivation) error {
	now = now.UTC()
	expiresAt := a.ExpiresAt.UTC()
	return r.db.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE payments SET status = ?, approved_by = ?, approved_at = ?, admin_notes = ?,
				plan_expires_at = ?, updated_at = ?
			WHERE id = ? AND status = ?`,
			payment.StatusApproved, adminID, now, notes, expiresAt, now, id, payment.StatusAwaitingApproval,
		)
		if err != nil {
			return errors.DatabaseError("Failed to approve payment", err)
		}
		if changed, err := rowsChanged(res); err != nil {
			return errors.DatabaseError("Failed to get affected rows", err)
		} else if !changed {
			return errors.ValidationError("Payment is not awaiting approval", map[string]string{"field": "status"})
		}

		res, err = tx.ExecContext(ctx, `
			UPDATE users SET plan_type = ?, plan_expires_at = ?, max_listings = ?, max_photos = ?,
				status = ?, expiration_notified = ?, updated_at = ?
			WHERE id = (SELECT user_id FROM payments WHERE id = ?)`,
			a.PlanType, expiresAt, a.MaxListings, a.MaxPhotos, user.StatusActive, false, now, id,
		)
		if err != nil {
			return errors.DatabaseError("Failed to activate plan", err)
		}
		if changed, err := rowsChanged(res); err != nil {
			return errors.DatabaseError("Failed to get affected rows", err)
		} else if !changed {
			return errors.NotFound("User")
		}
		return nil
	})
}

func (r *PaymentRepository) Reject(ctx context.Context, id, adminID, notes string, now time.Time) error {
	now = now.UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = ?, approved_by = ?, approved_at = ?, admin_notes = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		payment.StatusRejected, adminID, now, notes, now, id, payment.StatusAwaitingApproval,
	)
	if err != nil {
		return errors.DatabaseError("Failed to reject payment", err)
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if !changed {
		return errors.ValidationError("Payment is not awaiting approval", map[string]string{"field": "status"})
	}
	return nil
}

func (r *PaymentRepository) CountByStatus(ctx context.Context) (map[payment.Status]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM payments GROUP BY status`)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count payments", err)
	}
	defer rows.Close()

	counts := make(map[payment.Status]int64, len(payment.AllStatuses))
	for _, s := range payment.AllStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var s payment.Status
		var n int64
		if err := rows.Scan(&s, &n); err != nil {
			return nil, errors.DatabaseError("Failed to scan payment count", err)
		}
		counts[s] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to count payments", err)
	}
	return counts, nil
}

// Revenue sums in Go so both drivers share decimal semantics
func (r *PaymentRepository) Revenue(ctx context.Context, since *time.Time) (decimal.Decimal, error) {
	query := `SELECT amount FROM payments WHERE status = ?`
	args := []interface{}{payment.StatusApproved}
	if since != nil {
		query += ` AND approved_at >= ?`
		args = append(args, since.UTC())
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, errors.DatabaseError("Failed to sum revenue", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, errors.DatabaseError("Failed to scan amount", err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, errors.DatabaseError("Failed to sum revenue", err)
	}
	return total, nil
}
