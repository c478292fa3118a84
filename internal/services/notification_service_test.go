package services

import (
	"context"
	"testing"

	"github.com/imovlocal/backend/internal/domain/notification"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/errors"
	"github.com/imovlocal/backend/internal/testutil"
)

func newNotificationFixture() (*NotificationService, *testutil.MockNotificationRepository, *testutil.MockUserRepository) {
	repo := testutil.NewMockNotificationRepository()
	users := testutil.NewMockUserRepository()
	return NewNotificationService(repo, users, testutil.NewTestLogger()), repo, users
}

func TestNotificationService_Create(t *testing.T) {
	service, _, _ := newNotificationFixture()
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		typ     notification.Type
		title   string
		wantErr bool
	}{
		{name: "system notification", userID: "u1", typ: notification.TypeSystem, title: "Hello"},
		{name: "unknown recipient is accepted", userID: "ghost", typ: notification.TypeOpportunity, title: "Hello"},
		{name: "missing recipient", userID: "", typ: notification.TypeSystem, title: "Hello", wantErr: true},
		{name: "unknown type", userID: "u1", typ: "push", title: "Hello", wantErr: true},
		{name: "missing title", userID: "u1", typ: notification.TypeSystem, title: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := service.Create(ctx, tt.userID, tt.typ, tt.title, "Body text", nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Create() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.IsValidation(err) {
					t.Errorf("Create() error = %v, want validation error", err)
				}
				return
			}
			if n.ID == "" || n.Read {
				t.Errorf("Create() = %+v, want unread notification with ID", n)
			}
		})
	}
}

func TestNotificationService_UnreadRoundTrip(t *testing.T) {
	service, _, _ := newNotificationFixture()
	ctx := context.Background()

	n, err := service.Create(ctx, "u1", notification.TypeSystem, "Hi", "Welcome aboard", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	unread, _ := service.List(ctx, notification.Filter{UserID: "u1", UnreadOnly: true})
	if len(unread) != 1 || unread[0].ID != n.ID || unread[0].Read {
		t.Fatalf("unread list = %+v, want the new notification unread", unread)
	}

	if err := service.MarkRead(ctx, n.ID, "u1"); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}

	unread, _ = service.List(ctx, notification.Filter{UserID: "u1", UnreadOnly: true})
	if len(unread) != 0 {
		t.Errorf("unread list after MarkRead = %d items, want 0", len(unread))
	}
	all, _ := service.List(ctx, notification.Filter{UserID: "u1"})
	if len(all) != 1 || !all[0].Read {
		t.Errorf("full list after MarkRead = %+v, want one read notification", all)
	}
}

func TestNotificationService_MarkReadOwnership(t *testing.T) {
	service, _, _ := newNotificationFixture()
	ctx := context.Background()
	n, _ := service.Create(ctx, "u1", notification.TypeSystem, "Hi", "Welcome aboard", nil)

	tests := []struct {
		name   string
		id     string
		userID string
	}{
		{name: "missing notification", id: "nope", userID: "u1"},
		{name: "someone else's notification", id: n.ID, userID: "u2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := service.MarkRead(ctx, tt.id, tt.userID); !errors.IsNotFound(err) {
				t.Errorf("MarkRead() error = %v, want not found", err)
			}
		})
	}
}

func TestNotificationService_MarkAllReadIdempotent(t *testing.T) {
	service, _, _ := newNotificationFixture()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		service.Create(ctx, "u1", notification.TypeSystem, "Hi", "Message body", nil)
	}
	service.Create(ctx, "u2", notification.TypeSystem, "Hi", "Message body", nil)

	first, err := service.MarkAllRead(ctx, "u1")
	if err != nil || first != 3 {
		t.Fatalf("first MarkAllRead() = %d, %v; want 3", first, err)
	}
	second, err := service.MarkAllRead(ctx, "u1")
	if err != nil || second != 0 {
		t.Errorf("second MarkAllRead() = %d, %v; want 0", second, err)
	}
	if n, _ := service.CountUnread(ctx, "u2"); n != 1 {
		t.Errorf("CountUnread(u2) = %d, want 1", n)
	}
}

func TestNotificationService_Delete(t *testing.T) {
	service, repo, _ := newNotificationFixture()
	ctx := context.Background()
	n, _ := service.Create(ctx, "u1", notification.TypeSystem, "Hi", "Message body", nil)

	if err := service.Delete(ctx, n.ID, "u2"); !errors.IsForbidden(err) {
		t.Errorf("Delete() by other user error = %v, want forbidden", err)
	}
	if err := service.Delete(ctx, "missing", "u1"); !errors.IsNotFound(err) {
		t.Errorf("Delete() missing error = %v, want not found", err)
	}
	if err := service.Delete(ctx, n.ID, "u1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if repo.Count() != 0 {
		t.Errorf("notifications left = %d, want 0", repo.Count())
	}
}

func TestNotificationService_Broadcast(t *testing.T) {
	admin := testutil.NewUser("admin", user.TypeAdmin)
	paused := testutil.NewUser("paused", user.TypeCorretor)
	paused.Status = user.StatusPaused

	tests := []struct {
		name     string
		sender   *user.User
		input    notification.BroadcastInput
		wantSent int
		wantBy   map[string]int
		wantCode string
	}{
		{
			name:     "all expands to customer types",
			sender:   admin,
			input:    notification.BroadcastInput{Title: "  Aviso ", Message: "Manutenção programada hoje", TargetUserTypes: []string{"all"}},
			wantSent: 3,
			wantBy:   map[string]int{"particular": 1, "corretor": 1, "imobiliaria": 1},
		},
		{
			name:     "single type",
			sender:   admin,
			input:    notification.BroadcastInput{Title: "Aviso", Message: "Novidades para corretores", TargetUserTypes: []string{"corretor"}},
			wantSent: 1,
			wantBy:   map[string]int{"corretor": 1},
		},
		{
			name:     "non admin sender",
			sender:   testutil.NewUser("c1", user.TypeCorretor),
			input:    notification.BroadcastInput{Title: "Aviso", Message: "Mensagem longa o bastante", TargetUserTypes: []string{"all"}},
			wantCode: errors.ErrCodeForbidden,
		},
		{
			name:     "short title after trim",
			sender:   admin,
			input:    notification.BroadcastInput{Title: "  Oi  ", Message: "Mensagem longa o bastante", TargetUserTypes: []string{"all"}},
			wantCode: errors.ErrCodeValidation,
		},
		{
			name:     "short message",
			sender:   admin,
			input:    notification.BroadcastInput{Title: "Aviso", Message: "curta", TargetUserTypes: []string{"all"}},
			wantCode: errors.ErrCodeValidation,
		},
		{
			name:     "unknown type",
			sender:   admin,
			input:    notification.BroadcastInput{Title: "Aviso", Message: "Mensagem longa o bastante", TargetUserTypes: []string{"corretor", "alien"}},
			wantCode: errors.ErrCodeValidation,
		},
		{
			name:     "admin type is not a target",
			sender:   admin,
			input:    notification.BroadcastInput{Title: "Aviso", Message: "Mensagem longa o bastante", TargetUserTypes: []string{"admin"}},
			wantCode: errors.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, users := newNotificationFixture()
			users.Add(admin, paused,
				testutil.NewUser("p1", user.TypeParticular),
				testutil.NewUser("c1", user.TypeCorretor),
				testutil.NewUser("i1", user.TypeImobiliaria),
			)

			res, err := service.Broadcast(context.Background(), tt.sender, tt.input)
			if tt.wantCode != "" {
				if !errors.HasCode(err, tt.wantCode) {
					t.Fatalf("Broadcast() error = %v, want %s", err, tt.wantCode)
				}
				if repo.Count() != 0 {
					t.Errorf("Broadcast() stored %d notifications on failure", repo.Count())
				}
				return
			}
			if err != nil {
				t.Fatalf("Broadcast() error = %v", err)
			}
			if res.Sent != tt.wantSent || repo.Count() != tt.wantSent {
				t.Errorf("Broadcast() sent = %d stored = %d, want %d", res.Sent, repo.Count(), tt.wantSent)
			}
			for k, v := range tt.wantBy {
				if res.ByType[k] != v {
					t.Errorf("ByType[%s] = %d, want %d", k, res.ByType[k], v)
				}
			}
			if got := repo.ForUser("paused"); len(got) != 0 {
				t.Errorf("paused user received %d notifications", len(got))
			}
			for _, n := range repo.ForUser("c1") {
				if n.Title != "Aviso" || n.Type != notification.TypeSystem || n.Data["is_admin_broadcast"] != true {
					t.Errorf("broadcast notification = %+v", n)
				}
			}
		})
	}
}

func TestNotificationService_Stats(t *testing.T) {
	service, _, users := newNotificationFixture()
	ctx := context.Background()
	admin := testutil.NewUser("admin", user.TypeAdmin)
	users.Add(admin, testutil.NewUser("c1", user.TypeCorretor), testutil.NewUser("c2", user.TypeCorretor))

	if _, err := service.Broadcast(ctx, admin, notification.BroadcastInput{
		Title: "Aviso", Message: "Mensagem longa o bastante", TargetUserTypes: []string{"all"},
	}); err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}
	service.Create(ctx, "c1", notification.TypeSystem, "Direct", "Not a broadcast", nil)

	stats, err := service.Stats(ctx, admin)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalActiveUsers != 2 || stats.ActiveUsersByType["corretor"] != 2 || stats.ActiveUsersByType["particular"] != 0 {
		t.Errorf("Stats() users = %+v", stats)
	}
	if stats.TotalBroadcasts != 2 {
		t.Errorf("Stats() broadcasts = %d, want 2", stats.TotalBroadcasts)
	}

	if _, err := service.Stats(ctx, testutil.NewUser("c1", user.TypeCorretor)); !errors.IsForbidden(err) {
		t.Errorf("Stats() by broker error = %v, want forbidden", err)
	}
}
