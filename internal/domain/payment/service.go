package payment

import (
	"context"

	"github.com/imovlocal/backend/internal/domain/user"
)

// Service defines the payment lifecycle
type Service interface {
	Create(ctx context.Context, payer *user.User, planID string) (*Payment, error)
	UploadReceipt(ctx context.Context, paymentID string, payer *user.User, receipt Receipt) (*Payment, error)
	Cancel(ctx context.Context, paymentID string, payer *user.User) (*Payment, error)
	Review(ctx context.Context, paymentID string, admin *user.User, review Review) (*ReviewResult, error)

	ListMine(ctx context.Context, payer *user.User, status Status) ([]*Payment, error)
	CurrentPlan(ctx context.Context, payer *user.User) (*CurrentPlan, error)

	AdminList(ctx context.Context, admin *user.User, filter Filter) ([]*Payment, error)
	AdminGet(ctx context.Context, admin *user.User, id string) (*Payment, error)
	PendingApprovalCount(ctx context.Context, admin *user.User) (int64, error)
	Stats(ctx context.Context, admin *user.User) (*Stats, error)
}

// ReceiptStore persists receipt files and returns a URL to reach them
type ReceiptStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
	// Delete removes a stored receipt. A missing key is not an error.
	Delete(ctx context.Context, key string) error
}
