package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/imovlocal/backend/internal/auth"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/errors"
	"github.com/imovlocal/backend/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// UserKey is the context key for the authenticated *user.User
	UserKey ContextKey = "user"
	// UserIDKey is the context key for user ID
	UserIDKey ContextKey = "userID"
)

// UserLoader resolves the account behind a token
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return ""
}

// AuthMiddleware validates the JWT and loads the caller's account. Deleted
// accounts are refused even with a valid token.
func AuthMiddleware(jwtSecret string, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}

			claims, err := auth.ParseClaims(tokenStr, jwtSecret)
			if err != nil {
				utils.WriteError(w, errors.Unauthorized("Invalid or expired token"))
				return
			}

			u, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.IsNotFound(err) {
					utils.WriteError(w, errors.Unauthorized("Account not found"))
					return
				}
				utils.WriteError(w, err)
				return
			}
			if u.Status == user.StatusDeleted {
				utils.WriteError(w, errors.Unauthorized("Account not found"))
				return
			}

			AddLogField(w, "user_id", u.ID)
			AddLogField(w, "user_type", string(u.UserType))

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireAdmin rejects callers that are not admin or admin_senior
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := GetUser(r)
		if !ok {
			utils.WriteError(w, errors.Unauthorized("Authentication required"))
			return
		}
		if !u.IsAdmin() {
			utils.WriteError(w, errors.Forbidden("Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser stores the authenticated user in ctx
func WithUser(ctx context.Context, u *user.User) context.Context {
	ctx = context.WithValue(ctx, UserKey, u)
	return context.WithValue(ctx, UserIDKey, u.ID)
}

// GetUser extracts the authenticated user from the request context
func GetUser(r *http.Request) (*user.User, bool) {
	u, ok := r.Context().Value(UserKey).(*user.User)
	return u, ok && u != nil
}

// GetUserID extracts the user ID from the request context
func GetUserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserIDKey).(string)
	return userID, ok && userID != ""
}
