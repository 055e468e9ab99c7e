// internal/middleware/subscription.go
package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/db"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"

	"github.com/alexedwards/scs/v2"
)

// RequireActiveSubscription gates the compliance workspace behind an active,
// unexpired subscription. API-ish requests get a 403; page requests are
// redirected to pricing.
func RequireActiveSubscription(sessionManager *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := r.Context().Value(UserIDContextKey).(int64)
			if !ok || userID == 0 {
				slog.Error("RequireActiveSubscription: no userID in context")
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			status, endDate, err := db.GetUserSubscriptionStatus(userID)
			if err != nil {
				slog.Error("RequireActiveSubscription: subscription lookup failed", "userID", userID, "error", err)
				http.Error(w, "Server error while checking your subscription. Please try again later.", http.StatusInternalServerError)
				return
			}

			isActive := false
			if status == models.SubscriptionStatusActive {
				if endDate == nil || endDate.After(time.Now()) {
					isActive = true
				} else {
					slog.Info("Subscription expired", "userID", userID, "endDate", endDate)
				}
			}

			if !isActive {
				slog.Warn("Access denied: inactive subscription", "userID", userID, "status", status)
				sessionManager.Put(r.Context(), "redirectAfterSubscription", r.URL.RequestURI())

				if strings.HasPrefix(r.URL.Path, "/api/") || r.Header.Get("Accept") == "application/json" {
					http.Error(w, "An active subscription is required for this resource.", http.StatusForbidden)
				} else {
					http.Redirect(w, r, "/pricing", http.StatusSeeOther)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
