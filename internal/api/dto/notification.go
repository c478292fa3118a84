package dto

import (
	"github.com/imovlocal/backend/internal/domain/notification"
)

// BroadcastRequest is an admin announcement to every active user of the
// target types. "all" targets every non-admin type.
type BroadcastRequest struct {
	Title           string   `json:"title" validate:"required,min=1,max=200"`
	Message         string   `json:"message" validate:"required,min=1,max=2000"`
	TargetUserTypes []string `json:"target_user_types" validate:"required,min=1,dive,oneof=all particular corretor imobiliaria"`
}

// ToInput converts the request to the service input
func (r BroadcastRequest) ToInput() notification.BroadcastInput {
	return notification.BroadcastInput{
		Title:           r.Title,
		Message:         r.Message,
		TargetUserTypes: r.TargetUserTypes,
	}
}

// UnreadCountDTO is the number of unread notifications
type UnreadCountDTO struct {
	Count int64 `json:"count"`
}

// MarkAllReadDTO reports how many notifications changed
type MarkAllReadDTO struct {
	Updated int64 `json:"updated"`
}
