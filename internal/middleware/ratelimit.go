// internal/middleware/ratelimit.go
package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientLimiter holds the limiter state for one client IP.
type ClientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	clients = make(map[string]*ClientLimiter)
	mu      sync.Mutex
)

func init() {
	go cleanupClients()
}

func cleanupClients() {
	for {
		time.Sleep(10 * time.Minute)

		mu.Lock()
		for ip, client := range clients {
			if time.Since(client.lastSeen) > 15*time.Minute {
				delete(clients, ip)
				slog.Debug("Dropped limiter for idle IP", "ip", ip)
			}
		}
		mu.Unlock()
	}
}

// RateLimitMiddleware caps requests per client IP. rps is the sustained rate,
// burst the allowance for short spikes.
func RateLimitMiddleware(next http.Handler, rps float64, burst int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Behind a proxy the real client IP lives in X-Forwarded-For or
		// X-Real-IP; RemoteAddr carries the port.
		var clientIP string
		xff := r.Header.Get("X-Forwarded-For")
		if xff != "" {
			clientIP = strings.Split(xff, ",")[0]
		} else {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = strings.Split(r.RemoteAddr, ":")[0]
		}

		mu.Lock()
		clientData, found := clients[clientIP]
		if !found {
			clientData = &ClientLimiter{
				limiter: rate.NewLimiter(rate.Limit(rps), burst),
			}
			clients[clientIP] = clientData
		}
		clientData.lastSeen = time.Now()
		limiterInstance := clientData.limiter
		mu.Unlock()

		if !limiterInstance.Allow() {
			slog.Warn("Rate limit exceeded", "ip", clientIP, "path", r.URL.Path)
			http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
