package plan

import "context"

// Service exposes the catalog and quota checks
type Service interface {
	List(ctx context.Context) []Plan
	Get(ctx context.Context, id string) (*Plan, error)
	// CheckLimits compares the user's active listing count with their cap
	CheckLimits(ctx context.Context, userID string) (*Limits, error)
}
