package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/octobees/places-agent/internal/config"
)

// maxCallerBuckets bounds the bucket table; idle buckets are swept once it is reached.
const maxCallerBuckets = 1024

type callerBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// callerLimiter keeps one token bucket per caller.
type callerLimiter struct {
	mu      sync.Mutex
	every   rate.Limit
	burst   int
	idle    time.Duration
	buckets map[string]*callerBucket
	now     func() time.Time
}

func (l *callerLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxCallerBuckets {
			l.sweep(now)
		}
		b = &callerBucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

func (l *callerLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, key)
		}
	}
}

// callerKey identifies the caller by token subject, falling back to the client address when
// authentication is disabled.
func callerKey(c echo.Context) string {
	if subject, ok := c.Get(ContextKeySubject).(string); ok && subject != "" {
		return "sub:" + subject
	}
	return "ip:" + c.RealIP()
}

// SearchRateLimiter gives every caller its own token bucket of cfg.Requests per cfg.Interval.
// It must run after JWT so that callers are keyed by subject.
func SearchRateLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Requests <= 0 || cfg.Interval <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	perRequest := cfg.Interval / time.Duration(cfg.Requests)
	if perRequest <= 0 {
		perRequest = time.Second
	}

	limiter := &callerLimiter{
		every:   rate.Every(perRequest),
		burst:   cfg.Requests,
		idle:    cfg.Interval,
		buckets: make(map[string]*callerBucket),
		now:     time.Now,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.allow(callerKey(c)) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "search rate limit exceeded"})
			}
			return next(c)
		}
	}
}
