// internal/middleware/csrf.go
package middleware

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/justinas/nosurf"
)

// NoSurfMiddleware provides CSRF protection for form-bearing routes.
func NoSurfMiddleware(next http.Handler, isProduction bool) http.Handler {
	csrfHandler := nosurf.New(next)

	if os.Getenv("CSRF_AUTH_KEY") == "" {
		if isProduction {
			slog.Error("CRITICAL: CSRF_AUTH_KEY is not set in production")
		} else {
			slog.Warn("CSRF_AUTH_KEY not set; nosurf falls back to an ephemeral key (development only)")
		}
	}

	csrfHandler.SetBaseCookie(http.Cookie{
		HttpOnly: true,
		Path:     "/",
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})

	csrfHandler.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Warn("CSRF token check failed", "path", r.URL.Path, "method", r.Method, "reason", nosurf.Reason(r))
		http.Error(w, "Security error: invalid or missing CSRF token.", http.StatusForbidden)
	}))

	return csrfHandler
}
