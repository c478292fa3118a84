package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/imovlocal/backend/internal/domain/notification"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/errors"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/metrics"
)

const (
	minBroadcastTitle   = 3
	minBroadcastMessage = 10
)

// NotificationService implements notification.Service
type NotificationService struct {
	repo     notification.Repository
	userRepo user.Repository
	logger   *logger.Logger
	now      func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo notification.Repository, userRepo user.Repository, log *logger.Logger) *NotificationService {
	return &NotificationService{
		repo:     repo,
		userRepo: userRepo,
		logger:   log.WithComponent("notifications"),
		now:      time.Now,
	}
}

// Create stores an unread notification for userID
func (s *NotificationService) Create(ctx context.Context, userID string, t notification.Type, title, message string, data map[string]interface{}) (*notification.Notification, error) {
	if userID == "" {
		return nil, errors.ValidationError("Recipient is required", map[string]string{"field": "user_id"})
	}
	if !t.IsValid() {
		return nil, errors.ValidationError("Unknown notification type", map[string]string{"field": "type", "value": string(t)})
	}
	if title == "" || message == "" {
		return nil, errors.ValidationError("Title and message are required", map[string]string{"field": "title"})
	}

	n := &notification.Notification{
		UserID:    userID,
		Type:      t,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	metrics.RecordNotifications(string(t), 1)
	return n, nil
}

// List returns the user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, filter notification.Filter) ([]*notification.Notification, error) {
	return s.repo.List(ctx, filter)
}

// CountUnread counts the user's unread notifications
func (s *NotificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead flags one notification owned by userID as read
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead flags every unread notification of userID and reports how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// Delete removes a notification owned by userID
func (s *NotificationService) Delete(ctx context.Context, id, userID string) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return errors.Forbidden("You can only delete your own notifications")
	}
	return s.repo.Delete(ctx, id)
}

// Broadcast sends one system notification to every active user of the
// requested types in a single batch
func (s *NotificationService) Broadcast(ctx context.Context, sender *user.User, input notification.BroadcastInput) (*notification.BroadcastResult, error) {
	if sender == nil || !sender.IsAdmin() {
		return nil, errors.Forbidden("Only admins can broadcast notifications")
	}

	title := strings.TrimSpace(input.Title)
	message := strings.TrimSpace(input.Message)
	if utf8.RuneCountInString(title) < minBroadcastTitle {
		return nil, errors.ValidationError("Title must be at least 3 characters", map[string]string{"field": "title"})
	}
	if utf8.RuneCountInString(message) < minBroadcastMessage {
		return nil, errors.ValidationError("Message must be at least 10 characters", map[string]string{"field": "message"})
	}

	targets, err := resolveTargets(input.TargetUserTypes)
	if err != nil {
		return nil, err
	}

	recipients, err := s.userRepo.ListActiveByTypes(ctx, targets)
	if err != nil {
		return nil, err
	}

	result := &notification.BroadcastResult{ByType: make(map[string]int, len(targets))}
	for _, t := range targets {
		result.ByType[string(t)] = 0
	}
	if len(recipients) == 0 {
		return result, nil
	}

	now := s.now().UTC()
	batch := make([]*notification.Notification, 0, len(recipients))
	for _, u := range recipients {
		batch = append(batch, &notification.Notification{
			UserID:  u.ID,
			Type:    notification.TypeSystem,
			Title:   title,
			Message: message,
			Data: map[string]interface{}{
				"sent_by":            sender.ID,
				"sent_by_name":       sender.Name,
				"target_type":        string(u.UserType),
				"is_admin_broadcast": true,
			},
			Broadcast: true,
			CreatedAt: now,
		})
		result.ByType[string(u.UserType)]++
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}
	result.Sent = len(batch)
	metrics.RecordNotifications(string(notification.TypeSystem), len(batch))

	s.logger.WithFields(map[string]interface{}{
		"sender_id":  sender.ID,
		"recipients": result.Sent,
		"targets":    targets,
	}).Info("Broadcast sent")

	return result, nil
}

// resolveTargets expands "all" and rejects unknown or admin types
func resolveTargets(raw []string) ([]user.Type, error) {
	if len(raw) == 0 {
		return nil, errors.ValidationError("At least one target user type is required",
			map[string]string{"field": "target_user_types"})
	}

	seen := make(map[user.Type]bool)
	var out []user.Type
	add := func(t user.Type) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	for _, r := range raw {
		r = strings.TrimSpace(strings.ToLower(r))
		if r == notification.BroadcastTargetAll {
			for _, t := range user.CustomerTypes {
				add(t)
			}
			continue
		}
		t := user.Type(r)
		if !t.IsValid() || t.IsAdmin() {
			return nil, errors.ValidationError("Invalid target user type: "+r,
				map[string]string{"field": "target_user_types", "value": r})
		}
		add(t)
	}
	return out, nil
}

// Stats reports how many active users a broadcast would reach
func (s *NotificationService) Stats(ctx context.Context, requester *user.User) (*notification.Stats, error) {
	if requester == nil || !requester.IsAdmin() {
		return nil, errors.Forbidden("Only admins can view notification stats")
	}

	counts, err := s.userRepo.CountActiveByType(ctx)
	if err != nil {
		return nil, err
	}
	broadcasts, err := s.repo.CountBroadcasts(ctx)
	if err != nil {
		return nil, err
	}

	stats := &notification.Stats{
		ActiveUsersByType: make(map[string]int64, len(user.CustomerTypes)),
		TotalBroadcasts:   broadcasts,
	}
	for _, t := range user.CustomerTypes {
		stats.ActiveUsersByType[string(t)] = counts[t]
		stats.TotalActiveUsers += counts[t]
	}
	return stats, nil
}
