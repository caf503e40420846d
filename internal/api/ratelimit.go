package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterSettings tunes the per-IP token buckets. Zero fields fall back
// to the package defaults in withDefaults.
type limiterSettings struct {
	// PerSecond is the refill rate of each bucket.
	PerSecond float64
	// Burst is the bucket capacity and the initial allowance.
	Burst int
	// SweepInterval bounds how often stale buckets are swept.
	SweepInterval time.Duration
	// StaleAfter is how long an IP must be idle before its bucket is
	// dropped; dropping resets the IP to a full burst.
	StaleAfter time.Duration
}

func (s limiterSettings) withDefaults() limiterSettings {
	if s.PerSecond <= 0 {
		s.PerSecond = 1.0
	}
	if s.Burst <= 0 {
		s.Burst = 1
	}
	if s.SweepInterval <= 0 {
		s.SweepInterval = 5 * time.Minute
	}
	if s.StaleAfter <= 0 {
		s.StaleAfter = 10 * time.Minute
	}
	return s
}

// rateLimiter tracks one token bucket per client IP. There is no
// background goroutine: stale buckets are swept inline from allow,
// at most once per SweepInterval.
type rateLimiter struct {
	settings limiterSettings

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(settings limiterSettings) *rateLimiter {
	return &rateLimiter{
		settings:  settings.withDefaults(),
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

// allow consumes one token from the bucket for ip, creating the bucket
// on first sight. Returns false when the bucket is empty.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > rl.settings.SweepInterval {
		rl.sweepLocked(now)
	}

	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(rl.settings.PerSecond), rl.settings.Burst)}
		rl.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter.Allow()
}

// sweepLocked drops buckets idle longer than StaleAfter. Caller holds mu.
func (rl *rateLimiter) sweepLocked(now time.Time) {
	for ip, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.settings.StaleAfter {
			delete(rl.buckets, ip)
		}
	}
	rl.lastSweep = now
}

// rateLimitMiddleware rejects requests from IPs that have exhausted
// their token bucket with 429 and a Retry-After hint.
func rateLimitMiddleware(rl *rateLimiter, trustProxy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			if !rl.allow(ip) {
				logger.Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
					"method", r.Method,
				)
				w.Header().Set("Retry-After", "1")
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client IP from the request.
//
// When trustProxy is true, checks X-Real-IP first (set by nginx/HAProxy),
// then X-Forwarded-For (first IP). Header values are validated with
// net.ParseIP to prevent injection of non-IP strings into rate limiter keys.
//
// When trustProxy is false, only uses RemoteAddr (safe default for direct
// exposure).
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
				return ip.String()
			}
		}

		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			raw := xff
			if first, _, ok := strings.Cut(xff, ","); ok {
				raw = first
			}
			if ip := net.ParseIP(strings.TrimSpace(raw)); ip != nil {
				return ip.String()
			}
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
