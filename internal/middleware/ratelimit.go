package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for the rate limiter middleware.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit (tokens added per second).
	RequestsPerSecond float64
	// Burst is the maximum number of requests allowed in a burst.
	Burst int
}

// Idle clients (a CLI that polled a run once and went away) are dropped so the
// registry does not grow without bound.
const (
	limiterSweepEvery = 5 * time.Minute
	limiterIdleAfter  = 10 * time.Minute
)

// limiterRegistry keeps one token bucket per client IP. Run-status pollers
// share a bucket per host, so a tight polling loop exhausts its own budget
// without starving other clients.
type limiterRegistry struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	buckets map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterRegistry(cfg RateLimitConfig) *limiterRegistry {
	reg := &limiterRegistry{cfg: cfg, buckets: make(map[string]*clientBucket)}
	go reg.sweep()
	return reg
}

// bucket returns the client's limiter, creating it on first sight.
func (reg *limiterRegistry) bucket(ip string) *rate.Limiter {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if b, ok := reg.buckets[ip]; ok {
		b.lastSeen = time.Now()
		return b.limiter
	}
	b := &clientBucket{
		limiter:  rate.NewLimiter(rate.Limit(reg.cfg.RequestsPerSecond), reg.cfg.Burst),
		lastSeen: time.Now(),
	}
	reg.buckets[ip] = b
	return b.limiter
}

func (reg *limiterRegistry) sweep() {
	for {
		time.Sleep(limiterSweepEvery)
		reg.mu.Lock()
		for ip, b := range reg.buckets {
			if time.Since(b.lastSeen) > limiterIdleAfter {
				delete(reg.buckets, ip)
			}
		}
		reg.mu.Unlock()
	}
}

// RateLimiter returns an HTTP middleware that enforces a per-client token-bucket
// rate limit. When the limit is exceeded, it responds with 429 Too Many Requests
// and sets standard rate-limit headers.
func RateLimiter(cfg RateLimitConfig) func(http.Handler) http.Handler {
	reg := newLimiterRegistry(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := reg.bucket(clientIP(r))

			res := limiter.Reserve()
			if !res.OK() {
				// Limiter cannot grant the request even with infinite wait.
				writeRateLimited(w, 0)
				return
			}

			if delay := res.Delay(); delay > 0 {
				// Request would exceed the rate; give back the reservation
				// so the rejection doesn't consume budget.
				res.Cancel()
				writeRateLimited(w, int(delay.Seconds())+1)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP keys the bucket on RemoteAddr with the port stripped.
// X-Forwarded-For is untrusted and ignored: honoring it would let a client
// rotate spoofed headers to dodge its bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimited(w http.ResponseWriter, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    http.StatusTooManyRequests,
		"message": "rate limit exceeded",
	})
}
