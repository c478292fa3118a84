package property

import "context"

// Repository is the read side of the listing store used by the core
type Repository interface {
	// Create inserts a listing
	Create(ctx context.Context, p *Property) error

	// GetByID retrieves a listing by ID
	GetByID(ctx context.Context, id string) (*Property, error)

	// FindMatching returns at most limit active listings satisfying criteria
	FindMatching(ctx context.Context, criteria MatchCriteria, limit int) ([]*Property, error)

	// CountActiveByOwner counts the owner's active listings
	CountActiveByOwner(ctx context.Context, ownerID string) (int64, error)
}
