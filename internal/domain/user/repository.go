package user

import (
	"context"
	"time"
)

// Repository defines the interface for user data access
type Repository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// ListActiveByTypes returns active users whose type is in types
	ListActiveByTypes(ctx context.Context, types []Type) ([]*User, error)

	// CountActiveByType counts active users grouped by type
	CountActiveByType(ctx context.Context) (map[Type]int64, error)

	// ListExpired returns active users whose plan expired before now
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*User, error)

	// ListExpiringSoon returns active, not yet reminded users whose plan
	// expires within [now, until]
	ListExpiringSoon(ctx context.Context, now, until time.Time, limit int) ([]*User, error)

	// DemoteExpired moves an active user with an expired plan back to
	// pending. It reports false when the row no longer qualifies.
	DemoteExpired(ctx context.Context, id string, now time.Time) (bool, error)

	// MarkExpirationNotified flags the renewal reminder as sent. It reports
	// false when the flag was already set or the plan left the window.
	MarkExpirationNotified(ctx context.Context, id string, now, until time.Time) (bool, error)
}
