package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/imovlocal/backend/internal/api/dto"
	"github.com/imovlocal/backend/internal/domain/notification"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/validator"
	"github.com/imovlocal/backend/internal/services"
	"github.com/imovlocal/backend/internal/testutil"
)

type notificationHarness struct {
	handler *NotificationHandler
	service *services.NotificationService
	notes   *testutil.MockNotificationRepository

	alice *user.User
	bob   *user.User
	admin *user.User
}

func newNotificationHarness() *notificationHarness {
	users := testutil.NewMockUserRepository()
	notes := testutil.NewMockNotificationRepository()
	log := testutil.NewTestLogger()
	service := services.NewNotificationService(notes, users, log)

	h := &notificationHarness{
		handler: NewNotificationHandler(service, log, validator.New()),
		service: service,
		notes:   notes,
		alice:   testutil.NewUser("alice", user.TypeCorretor),
		bob:     testutil.NewUser("bob", user.TypeParticular),
		admin:   testutil.NewUser("admin", user.TypeAdmin),
	}
	users.Add(h.alice, h.bob, h.admin)
	return h
}

func (h *notificationHarness) notify(t *testing.T, userID string) *notification.Notification {
	t.Helper()
	n, err := h.service.Create(context.Background(), userID, notification.TypeSystem, "Olá", "Bem-vindo ao ImovLocal", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return n
}

func TestNotificationHandler_ListAndRead(t *testing.T) {
	h := newNotificationHarness()
	first := h.notify(t, h.alice.ID)
	h.notify(t, h.alice.ID)
	h.notify(t, h.bob.ID)

	rr, env := serve(t, http.MethodGet, "/notifications", "/notifications", h.handler.List, h.alice, nil)
	var items []notification.Notification
	decodeData(t, env, &items)
	if rr.Code != http.StatusOK || len(items) != 2 {
		t.Fatalf("list = %d items (status %d), want 2", len(items), rr.Code)
	}

	rr, _ = serve(t, http.MethodPut, "/notifications/{id}/read", "/notifications/"+first.ID+"/read", h.handler.MarkRead, h.bob, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("mark read by other user status = %d, want 404", rr.Code)
	}
	rr, _ = serve(t, http.MethodPut, "/notifications/{id}/read", "/notifications/"+first.ID+"/read", h.handler.MarkRead, h.alice, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("mark read status = %d", rr.Code)
	}

	rr, env = serve(t, http.MethodGet, "/notifications", "/notifications?unread_only=true", h.handler.List, h.alice, nil)
	decodeData(t, env, &items)
	if len(items) != 1 {
		t.Errorf("unread items = %d, want 1", len(items))
	}

	rr, env = serve(t, http.MethodGet, "/notifications/unread-count", "/notifications/unread-count", h.handler.UnreadCount, h.alice, nil)
	var count dto.UnreadCountDTO
	decodeData(t, env, &count)
	if count.Count != 1 {
		t.Errorf("unread count = %d, want 1", count.Count)
	}

	rr, env = serve(t, http.MethodPut, "/notifications/read-all", "/notifications/read-all", h.handler.MarkAllRead, h.alice, nil)
	var updated dto.MarkAllReadDTO
	decodeData(t, env, &updated)
	if rr.Code != http.StatusOK || updated.Updated != 1 {
		t.Errorf("mark all read updated = %d (status %d), want 1", updated.Updated, rr.Code)
	}
}

func TestNotificationHandler_Delete(t *testing.T) {
	h := newNotificationHarness()
	n := h.notify(t, h.alice.ID)
	target := "/notifications/" + n.ID

	tests := []struct {
		name       string
		user       *user.User
		wantStatus int
	}{
		{name: "other user", user: h.bob, wantStatus: http.StatusForbidden},
		{name: "recipient", user: h.alice, wantStatus: http.StatusOK},
		{name: "already gone", user: h.alice, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, _ := serve(t, http.MethodDelete, "/notifications/{id}", target, h.handler.Delete, tt.user, nil)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestNotificationHandler_Broadcast(t *testing.T) {
	tests := []struct {
		name       string
		user       func(h *notificationHarness) *user.User
		body       dto.BroadcastRequest
		wantStatus int
		wantSent   int
	}{
		{
			name:       "all customers",
			user:       func(h *notificationHarness) *user.User { return h.admin },
			body:       dto.BroadcastRequest{Title: "Manutenção", Message: "O sistema ficará fora do ar às 22h", TargetUserTypes: []string{"all"}},
			wantStatus: http.StatusOK,
			wantSent:   2,
		},
		{
			name:       "brokers only",
			user:       func(h *notificationHarness) *user.User { return h.admin },
			body:       dto.BroadcastRequest{Title: "Novidade", Message: "Quadro de oportunidades atualizado", TargetUserTypes: []string{"corretor"}},
			wantStatus: http.StatusOK,
			wantSent:   1,
		},
		{
			name:       "admin target refused",
			user:       func(h *notificationHarness) *user.User { return h.admin },
			body:       dto.BroadcastRequest{Title: "Novidade", Message: "Quadro de oportunidades atualizado", TargetUserTypes: []string{"admin"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty targets",
			user:       func(h *notificationHarness) *user.User { return h.admin },
			body:       dto.BroadcastRequest{Title: "Novidade", Message: "Quadro de oportunidades atualizado"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "short message",
			user:       func(h *notificationHarness) *user.User { return h.admin },
			body:       dto.BroadcastRequest{Title: "Oi", Message: "curta", TargetUserTypes: []string{"all"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not an admin",
			user:       func(h *notificationHarness) *user.User { return h.alice },
			body:       dto.BroadcastRequest{Title: "Manutenção", Message: "O sistema ficará fora do ar às 22h", TargetUserTypes: []string{"all"}},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newNotificationHarness()
			rr, env := serve(t, http.MethodPost, "/admin/notifications/broadcast", "/admin/notifications/broadcast",
				h.handler.Broadcast, tt.user(h), tt.body)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if rr.Code != http.StatusOK {
				if h.notes.Count() != 0 {
					t.Errorf("failed broadcast stored %d notifications", h.notes.Count())
				}
				return
			}
			var res notification.BroadcastResult
			decodeData(t, env, &res)
			if res.Sent != tt.wantSent || h.notes.Count() != tt.wantSent {
				t.Errorf("sent = %d, stored = %d, want %d", res.Sent, h.notes.Count(), tt.wantSent)
			}
			if len(h.notes.ForUser(h.admin.ID)) != 0 {
				t.Error("admins must not receive broadcasts")
			}
		})
	}
}
