package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

const (
	maxTrackedClients = 10000
	clientIdleTTL     = 10 * time.Minute
	authPathPrefix    = "/api/v1/auth"
)

var rateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "softdelete_http_rate_limited_total",
		Help: "Requests rejected by the rate limiter, by bucket.",
	},
	[]string{"bucket"},
)

type clientBuckets struct {
	general *rate.Limiter
	auth    *rate.Limiter
}

// RateLimitMiddleware keeps token buckets per client IP. Login attempts draw
// from a separate, stricter bucket. Clients idle for clientIdleTTL are
// forgotten.
type RateLimitMiddleware struct {
	generalRPM int
	authRPM    int

	mu      sync.Mutex
	clients *expirable.LRU[string, *clientBuckets]
}

// NewRateLimitMiddleware builds the limiter. A non-positive generalRPM
// disables the general bucket; authRPM falls back to 10.
func NewRateLimitMiddleware(generalRPM int, authRPM int) *RateLimitMiddleware {
	if authRPM <= 0 {
		authRPM = 10
	}
	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		clients:    expirable.NewLRU[string, *clientBuckets](maxTrackedClients, nil, clientIdleTTL),
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buckets := m.buckets(extractClientIP(r))

		bucket, limiter := "general", buckets.general
		if strings.HasPrefix(strings.ToLower(r.URL.Path), authPathPrefix) {
			bucket, limiter = "auth", buckets.auth
		}

		if limiter != nil && !limiter.Allow() {
			rateLimitedTotal.WithLabelValues(bucket).Inc()
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// buckets returns the client's limiters, creating them on first sight. Add
// refreshes the entry so active clients are not expired.
func (m *RateLimitMiddleware) buckets(clientIP string) *clientBuckets {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.clients.Get(clientIP); ok {
		m.clients.Add(clientIP, b)
		return b
	}

	b := &clientBuckets{auth: perMinute(m.authRPM)}
	if m.generalRPM > 0 {
		b.general = perMinute(m.generalRPM)
	}
	m.clients.Add(clientIP, b)
	return b
}

func perMinute(rpm int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}
