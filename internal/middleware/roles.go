// internal/middleware/roles.go
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/db"
)

// RequireRole allows the request through only when the authenticated user
// holds one of the listed roles. Must run after RequireAuthentication.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := r.Context().Value(UserIDContextKey).(int64)
			if !ok || userID == 0 {
				slog.Error("RequireRole: no userID in context")
				http.Error(w, "Access denied: not authenticated.", http.StatusUnauthorized)
				return
			}

			user, err := db.GetUserByID(userID)
			if err != nil {
				slog.Error("RequireRole: user lookup failed", "userID", userID, "error", err)
				http.Error(w, "Server error while checking permissions.", http.StatusInternalServerError)
				return
			}
			if user == nil || user.RoleName == nil {
				slog.Warn("RequireRole: user missing or has no role", "userID", userID)
				http.Error(w, "Access denied: could not determine your role.", http.StatusForbidden)
				return
			}

			userRole := *user.RoleName
			for _, allowed := range allowedRoles {
				if userRole == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			slog.Warn("Access denied: insufficient role", "userID", userID, "userRole", userRole, "requiredRoles", allowedRoles, "path", r.URL.Path)
			http.Error(w, "Access denied: you do not have permission for this resource.", http.StatusForbidden)
		})
	}
}
