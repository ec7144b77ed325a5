package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"payslipgen/internal/transport/http/api"
	"payslipgen/internal/transport/http/shared"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*rateLimiter)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	perMin  int
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	keyFn   RateLimitKeyFunc
	clients map[string]*limiterEntry
	log     *zap.Logger
	now     func() time.Time
}

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(rl *rateLimiter) {
		if fn != nil {
			rl.keyFn = fn
		}
	}
}

func WithRateLimitLogger(log *zap.Logger) RateLimitOption {
	return func(rl *rateLimiter) {
		if log != nil {
			rl.log = log
		}
	}
}

// RateLimit allows perMinute requests per caller with a burst of the same
// size. Callers are keyed by token subject, falling back to client IP.
func RateLimit(perMinute int, opts ...RateLimitOption) func(http.Handler) http.Handler {
	rl := newRateLimiter(perMinute)
	for _, opt := range opts {
		opt(rl)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		perMin:  perMinute,
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   max(perMinute, 1),
		idleTTL: 10 * time.Minute,
		keyFn:   principalOrIPKey,
		clients: map[string]*limiterEntry{},
		log:     zap.NewNop(),
		now:     time.Now,
	}
}

func (rl *rateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.clients[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = entry
	}
	entry.lastSeen = now

	if len(rl.clients) > 1024 {
		for k, e := range rl.clients {
			if now.Sub(e.lastSeen) > rl.idleTTL {
				delete(rl.clients, k)
			}
		}
	}
	return entry.limiter
}

func (rl *rateLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	if rl.perMin <= 0 {
		return true
	}

	key := rl.keyFn(r)
	if key == "" {
		key = clientIPKey(r)
	}
	now := rl.now()
	limiter := rl.limiterFor(key, now)
	reservation := limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.perMin))
	if delay > 0 {
		reservation.CancelAt(now)
		retry := max(int(delay.Round(time.Second).Seconds()), 1)
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		rl.log.Warn("rate limit exceeded",
			zap.String("key", key),
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Int("perMinute", rl.perMin),
		)
		api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
		return false
	}
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(int(limiter.TokensAt(now)), 0)))
	return true
}

func principalOrIPKey(r *http.Request) string {
	if principal, ok := GetPrincipal(r.Context()); ok && principal.Subject != "" {
		return "sub:" + principal.Subject
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	return shared.ClientIP(r)
}
