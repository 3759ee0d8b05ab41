package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ssi-studios/auth-service/internal/limiter"
)

type clientLimiter struct {
	general  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware applies a smoothed per-IP limit across the whole API.
// The credential endpoints additionally go through AuthRateLimit's stricter
// fixed window.
type RateLimitMiddleware struct {
	generalRPM int
	mu         sync.Mutex
	clients    map[string]*clientLimiter
}

func NewRateLimitMiddleware(generalRPM int) *RateLimitMiddleware {
	if generalRPM <= 0 {
		generalRPM = 100
	}

	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		clients:    map[string]*clientLimiter{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := ExtractClientIP(r)

		if !m.getLimiter(clientIP).general.Allow() {
			writeRateLimited(w, r, time.Now().UTC().Add(time.Minute))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) getLimiter(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lim, exists := m.clients[clientIP]; exists {
		lim.lastSeen = time.Now()
		m.gcLocked()
		return lim
	}

	general := rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.generalRPM)), m.generalRPM)
	created := &clientLimiter{general: general, lastSeen: time.Now()}
	m.clients[clientIP] = created
	m.gcLocked()

	return created
}

func (m *RateLimitMiddleware) gcLocked() {
	if len(m.clients) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, lim := range m.clients {
		if lim.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

// AuthRateLimit bounds credential-guessing attempts with a fixed window per
// client address.
func AuthRateLimit(window *limiter.FixedWindow) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, resetAt := window.Check(ExtractClientIP(r))
			if !allowed {
				writeRateLimited(w, r, resetAt)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimited(w http.ResponseWriter, r *http.Request, resetAt time.Time) {
	retryAfter := int(time.Until(resetAt).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeJSONError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests",
		"retry after "+resetAt.UTC().Format(time.RFC3339))
}

func ExtractClientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
			return strings.TrimSpace(parts[0])
		}
	}

	realIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
