package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/imovlocal/backend/internal/auth"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/testutil"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, u *user.User, secret string, ttl time.Duration) string {
	t.Helper()
	token, err := auth.MintAccessToken(u.ID, u.Email, string(u.UserType), secret, ttl)
	if err != nil {
		t.Fatalf("MintAccessToken() error = %v", err)
	}
	return token
}

func TestAuthMiddleware(t *testing.T) {
	users := testutil.NewMockUserRepository()
	broker := testutil.NewUser("broker", user.TypeCorretor)
	gone := testutil.NewUser("gone", user.TypeCorretor)
	gone.Status = user.StatusDeleted
	users.Add(broker, gone)
	ghost := testutil.NewUser("ghost", user.TypeCorretor)

	var seen *user.User
	handler := AuthMiddleware(testSecret, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUser(r)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantUser   string
	}{
		{name: "missing token", wantStatus: http.StatusUnauthorized},
		{name: "malformed header", header: "Token abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + mintToken(t, broker, "other", time.Hour), wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + mintToken(t, broker, testSecret, -time.Minute), wantStatus: http.StatusUnauthorized},
		{name: "unknown account", header: "Bearer " + mintToken(t, ghost, testSecret, time.Hour), wantStatus: http.StatusUnauthorized},
		{name: "deleted account", header: "Bearer " + mintToken(t, gone, testSecret, time.Hour), wantStatus: http.StatusUnauthorized},
		{name: "valid header", header: "Bearer " + mintToken(t, broker, testSecret, time.Hour), wantStatus: http.StatusOK, wantUser: "broker"},
		{name: "valid cookie", cookie: mintToken(t, broker, testSecret, time.Hour), wantStatus: http.StatusOK, wantUser: "broker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/demands", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "accessToken", Value: tt.cookie})
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantUser != "" {
				if seen == nil || seen.ID != tt.wantUser {
					t.Errorf("user in context = %v, want %s", seen, tt.wantUser)
				}
			} else if seen != nil {
				t.Errorf("handler reached with user %s", seen.ID)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		user       *user.User
		wantStatus int
	}{
		{name: "anonymous", wantStatus: http.StatusUnauthorized},
		{name: "broker", user: testutil.NewUser("b", user.TypeCorretor), wantStatus: http.StatusForbidden},
		{name: "admin", user: testutil.NewUser("a", user.TypeAdmin), wantStatus: http.StatusNoContent},
		{name: "senior admin", user: testutil.NewUser("s", user.TypeAdminSenior), wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/payments", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), tt.user))
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(0.001, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(remote string, u *user.User) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
		req.RemoteAddr = remote
		if u != nil {
			req = req.WithContext(WithUser(req.Context(), u))
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 2; i++ {
		if got := call("10.0.0.1:1234", nil); got != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, got)
		}
	}
	if got := call("10.0.0.1:5678", nil); got != http.StatusTooManyRequests {
		t.Errorf("third request from same IP status = %d, want 429", got)
	}
	if got := call("10.0.0.2:1234", nil); got != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", got)
	}

	// authenticated callers get their own bucket regardless of address
	u := testutil.NewUser("broker", user.TypeCorretor)
	if got := call("10.0.0.1:1234", u); got != http.StatusOK {
		t.Errorf("authenticated request status = %d, want 200", got)
	}
}

func TestRequestID(t *testing.T) {
	var got string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r)
	}))

	t.Run("keeps client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if got != "abc-123" || rr.Header().Get(RequestIDHeader) != "abc-123" {
			t.Errorf("request id = %q, header = %q", got, rr.Header().Get(RequestIDHeader))
		}
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		long := make([]byte, maxRequestIDLength+1)
		for i := range long {
			long[i] = 'x'
		}
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, string(long))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if got == string(long) || len(got) != 36 {
			t.Errorf("request id = %q, want generated uuid", got)
		}
	})
}

func TestRecovery(t *testing.T) {
	handler := Recovery(testutil.NewTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/demands", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "INTERNAL_ERROR") || strings.Contains(body, "boom") {
		t.Errorf("body = %s", body)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, path := range []string{"/api/v1/plans", "/swagger/index.html"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s: missing nosniff", path)
		}
		hasCSP := rr.Header().Get("Content-Security-Policy") != ""
		if wantCSP := path != "/swagger/index.html"; hasCSP != wantCSP {
			t.Errorf("%s: CSP present = %v, want %v", path, hasCSP, wantCSP)
		}
	}
}
