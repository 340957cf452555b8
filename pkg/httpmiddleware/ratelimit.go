package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window limiter applied to catalog
// mutations.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window. Zero disables limiting.
	Max int
	// Window is the length of one window.
	Window time.Duration
	// Methods lists the limited methods. Defaults to POST, PUT and DELETE so
	// reads served from the query cache are never throttled.
	Methods []string
	// KeyFunc extracts the limiter key. Defaults to the client IP.
	KeyFunc func(*http.Request) string
}

// counter tracks two adjacent windows of one key.
type counter struct {
	prev      float64
	prevStart time.Time
	curr      float64
	currStart time.Time
}

type rateLimiter struct {
	cfg     RateLimitConfig
	methods map[string]struct{}

	mu       sync.Mutex
	counters map[string]*counter
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	if len(cfg.Methods) == 0 {
		cfg.Methods = []string{http.MethodPost, http.MethodPut, http.MethodDelete}
	}
	methods := make(map[string]struct{}, len(cfg.Methods))
	for _, m := range cfg.Methods {
		methods[strings.ToUpper(m)] = struct{}{}
	}
	return &rateLimiter{
		cfg:      cfg,
		methods:  methods,
		counters: make(map[string]*counter),
	}
}

// allow records one request for key and reports whether it fits the limit.
func (rl *rateLimiter) allow(key string, now time.Time) (remaining int, resetAt time.Time, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, found := rl.counters[key]
	if !found {
		c = &counter{currStart: now}
		rl.counters[key] = c
	}

	if now.Sub(c.currStart) >= rl.cfg.Window {
		c.prev, c.prevStart = c.curr, c.currStart
		c.curr = 0
		c.currStart = now.Truncate(rl.cfg.Window)
		if now.Sub(c.prevStart) >= 2*rl.cfg.Window {
			c.prev = 0
		}
	}

	// The previous window counts in proportion to its overlap with the
	// sliding window ending now.
	overlap := 1 - now.Sub(c.currStart).Seconds()/rl.cfg.Window.Seconds()
	if overlap < 0 {
		overlap = 0
	}
	used := c.prev*overlap + c.curr
	resetAt = c.currStart.Add(rl.cfg.Window)

	if used >= float64(rl.cfg.Max) {
		return 0, resetAt, false
	}
	c.curr++
	return max(int(float64(rl.cfg.Max)-used-1), 0), resetAt, true
}

// sweep drops keys whose windows have both expired.
func (rl *rateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, c := range rl.counters {
		if now.Sub(c.currStart) >= 2*rl.cfg.Window {
			delete(rl.counters, key)
		}
	}
}

func (rl *rateLimiter) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(2 * rl.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

// RateLimit returns a middleware limiting the configured methods per key.
// Rejected requests get 429 with Retry-After and the gateway error envelope.
// Stale keys are swept in the background until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	rl := newRateLimiter(cfg)
	go rl.sweepLoop(ctx)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, limited := rl.methods[r.Method]; !limited {
				next.ServeHTTP(w, r)
				return
			}

			remaining, resetAt, ok := rl.allow(rl.cfg.KeyFunc(r), time.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				wait := max(time.Until(resetAt), 0)
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "too many catalog changes, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the first X-Forwarded-For entry, then X-Real-IP, then the
// host part of RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
