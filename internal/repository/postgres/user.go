package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/errors"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) user.Repository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, phone, creci, user_type, status, plan_type, plan_expires_at,
	max_listings, max_photos, expiration_notified, password_hash, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var planExpiresAt sql.NullTime
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Phone, &u.Creci, &u.UserType, &u.Status, &u.PlanType, &planExpiresAt,
		&u.MaxListings, &u.MaxPhotos, &u.ExpirationNotified, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.PlanExpiresAt = timePtr(planExpiresAt)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Status == "" {
		u.Status = user.StatusPending
	}
	if u.PlanType == "" {
		u.PlanType = user.PlanFree
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Name, u.Phone, u.Creci, u.UserType, u.Status, u.PlanType, nullTime(u.PlanExpiresAt),
		u.MaxListings, u.MaxPhotos, u.ExpirationNotified, u.PasswordHash, now, now,
	)
	if isUniqueViolation(err) {
		return errors.Conflict("A user with this email already exists")
	}
	if err != nil {
		return errors.DatabaseError("Failed to create user", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

func (r *UserRepository) ListActiveByTypes(ctx context.Context, types []user.Type) ([]*user.User, error) {
	if len(types) == 0 {
		return nil, nil
	}
	args := []interface{}{user.StatusActive}
	for _, t := range types {
		args = append(args, t)
	}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE status = ? AND user_type IN (%s) ORDER BY created_at`,
		userColumns, placeholders(len(types)))
	return r.queryUsers(ctx, "Failed to list users", query, args...)
}

func (r *UserRepository) CountActiveByType(ctx context.Context) (map[user.Type]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_type, COUNT(*) FROM users WHERE status = ? GROUP BY user_type`, user.StatusActive)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count users", err)
	}
	defer rows.Close()

	counts := make(map[user.Type]int64)
	for rows.Next() {
		var t user.Type
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return nil, errors.DatabaseError("Failed to scan user count", err)
		}
		counts[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to count users", err)
	}
	return counts, nil
}

func (r *UserRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE status = ? AND plan_expires_at IS NOT NULL AND plan_expires_at < ?
		ORDER BY plan_expires_at LIMIT ?`
	return r.queryUsers(ctx, "Failed to list expired users", query, user.StatusActive, now.UTC(), limit)
}

func (r *UserRepository) ListExpiringSoon(ctx context.Context, now, until time.Time, limit int) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE status = ? AND expiration_notified = ?
		AND plan_expires_at IS NOT NULL AND plan_expires_at >= ? AND plan_expires_at <= ?
		ORDER BY plan_expires_at LIMIT ?`
	return r.queryUsers(ctx, "Failed to list expiring users", query,
		user.StatusActive, false, now.UTC(), until.UTC(), limit)
}

func (r *UserRepository) DemoteExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET status = ?, updated_at = ?
		WHERE id = ? AND status = ? AND plan_expires_at IS NOT NULL AND plan_expires_at < ?`,
		user.StatusPending, now.UTC(), id, user.StatusActive, now.UTC(),
	)
	if err != nil {
		return false, errors.DatabaseError("Failed to demote user", err)
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return false, errors.DatabaseError("Failed to get affected rows", err)
	}
	return changed, nil
}

func (r *UserRepository) MarkExpirationNotified(ctx context.Context, id string, now, until time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET expiration_notified = ?, updated_at = ?
		WHERE id = ? AND status = ? AND expiration_notified = ?
		AND plan_expires_at IS NOT NULL AND plan_expires_at >= ? AND plan_expires_at <= ?`,
		true, now.UTC(), id, user.StatusActive, false, now.UTC(), until.UTC(),
	)
	if err != nil {
		return false, errors.DatabaseError("Failed to flag expiration reminder", err)
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return false, errors.DatabaseError("Failed to get affected rows", err)
	}
	return changed, nil
}

func (r *UserRepository) queryUsers(ctx context.Context, failMsg, query string, args ...interface{}) ([]*user.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError(failMsg, err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError(failMsg, err)
	}
	return users, nil
}
