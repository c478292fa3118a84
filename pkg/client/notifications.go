package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// NotificationService handles notification operations
type NotificationService struct {
	client *Client
}

// List retrieves the caller's notifications, newest first
func (s *NotificationService) List(ctx context.Context, unreadOnly bool, limit int) ([]Notification, error) {
	query := url.Values{}
	if unreadOnly {
		query.Set("unread_only", "true")
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var notifications []Notification
	if err := s.client.doRequest(ctx, "GET", withQuery(APIPrefix+"/notifications", query), nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// UnreadCount returns how many notifications are unread
func (s *NotificationService) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := s.client.doRequest(ctx, "GET", APIPrefix+"/notifications/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// MarkRead marks one notification as read
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.client.doRequest(ctx, "PUT", notificationPath(id)+"/read", nil, nil)
}

// MarkAllRead marks every notification as read and returns how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	if err := s.client.doRequest(ctx, "PUT", APIPrefix+"/notifications/read-all", nil, &out); err != nil {
		return 0, err
	}
	return out.Updated, nil
}

// Delete removes a notification
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	return s.client.doRequest(ctx, "DELETE", notificationPath(id), nil, nil)
}

// Broadcast sends an announcement to every active user of the target types (admin only)
func (s *NotificationService) Broadcast(ctx context.Context, req BroadcastRequest) (*BroadcastResult, error) {
	var res BroadcastResult
	if err := s.client.doRequest(ctx, "POST", APIPrefix+"/admin/notifications/broadcast", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Stats returns the admin broadcast overview
func (s *NotificationService) Stats(ctx context.Context) (*NotificationStats, error) {
	var stats NotificationStats
	if err := s.client.doRequest(ctx, "GET", APIPrefix+"/admin/notifications/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func notificationPath(id string) string {
	return fmt.Sprintf("%s/notifications/%s", APIPrefix, url.PathEscape(id))
}
