// internal/middleware/auth.go
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/db"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"

	"github.com/alexedwards/scs/v2"
)

type contextKey string

const UserIDContextKey contextKey = "userID"
const IsAuthenticatedContextKey contextKey = "isAuthenticated"
const UserContextKey contextKey = "user"

func RequireAuthentication(sessionManager *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sessionManager.GetInt64(r.Context(), string(UserIDContextKey))
			if userID == 0 {
				slog.Warn("Access denied: user not authenticated", "path", r.URL.Path)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			// Load the user here so every protected handler has it.
			user, err := db.GetUserByID(userID)
			if err != nil || user == nil {
				slog.Error("RequireAuthentication: user not found or lookup failed", "userID", userID, "error", err)
				sessionManager.Remove(r.Context(), string(UserIDContextKey))
				http.Redirect(w, r, "/login?err=session_invalid", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
			ctx = context.WithValue(ctx, UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InjectUserData makes the current user available on public pages without
// requiring authentication.
func InjectUserData(sessionManager *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			isAuthenticated := false
			var currentUser *models.User

			userFromAuth, ok := ctx.Value(UserContextKey).(*models.User)
			if ok && userFromAuth != nil {
				currentUser = userFromAuth
				isAuthenticated = true
			} else {
				sessionUserID := sessionManager.GetInt64(ctx, string(UserIDContextKey))
				if sessionUserID != 0 {
					userFromDB, err := db.GetUserByID(sessionUserID)
					if err == nil && userFromDB != nil {
						currentUser = userFromDB
						isAuthenticated = true
						ctx = context.WithValue(ctx, UserContextKey, currentUser)
					} else if err != nil {
						slog.Warn("InjectUserData: error fetching user from session", "userID", sessionUserID, "error", err)
					}
				}
			}

			ctx = context.WithValue(ctx, IsAuthenticatedContextKey, isAuthenticated)
			if isAuthenticated && currentUser != nil {
				ctx = context.WithValue(ctx, UserIDContextKey, currentUser.ID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
