package notification

import (
	"context"

	"github.com/imovlocal/backend/internal/domain/user"
)

// Service defines the notification operations
type Service interface {
	// Create stores an unread notification. The recipient is not checked.
	Create(ctx context.Context, userID string, t Type, title, message string, data map[string]interface{}) (*Notification, error)

	List(ctx context.Context, filter Filter) ([]*Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id, userID string) error

	// Broadcast sends one system notification to every active user of the
	// target types. Admin only.
	Broadcast(ctx context.Context, sender *user.User, input BroadcastInput) (*BroadcastResult, error)

	// Stats reports broadcast reach. Admin only.
	Stats(ctx context.Context, requester *user.User) (*Stats, error)
}

// BroadcastInput is an admin announcement
type BroadcastInput struct {
	Title           string
	Message         string
	TargetUserTypes []string
}
