package notification

import "context"

// Repository defines the interface for notification data access
type Repository interface {
	// Create inserts a notification
	Create(ctx context.Context, n *Notification) error

	// CreateBatch inserts all notifications in one transaction
	CreateBatch(ctx context.Context, ns []*Notification) error

	// GetByID retrieves a notification by ID
	GetByID(ctx context.Context, id string) (*Notification, error)

	// List returns a user's notifications, newest first
	List(ctx context.Context, filter Filter) ([]*Notification, error)

	// CountUnread counts a user's unread notifications
	CountUnread(ctx context.Context, userID string) (int64, error)

	// MarkRead flags one of the user's notifications as read. A missing
	// row or a row owned by someone else is NotFound.
	MarkRead(ctx context.Context, id, userID string) error

	// MarkAllRead flags every unread notification of the user and returns
	// how many rows changed
	MarkAllRead(ctx context.Context, userID string) (int64, error)

	// Delete removes a notification
	Delete(ctx context.Context, id string) error

	// CountBroadcasts counts notifications created by admin broadcasts
	CountBroadcasts(ctx context.Context) (int64, error)
}
