// internal/middleware/cors.go
package middleware

import "net/http"

// corsAllowHeaders mirrors what browser clients of the verify endpoint send.
const corsAllowHeaders = "authorization, x-client-info, apikey, content-type"

// PermissiveCORS answers pre-flight requests for the browser-called billing
// endpoints and stamps the CORS headers on every response. The verify
// endpoint is called cross-origin from checkout return pages, so any origin
// is allowed; it carries no credentials.
func PermissiveCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
