package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(c echo.Context) string

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// Key defaults to ByIP.
	Key KeyFunc
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// ByIP keys requests on the client address.
func ByIP(c echo.Context) string {
	return "ip:" + c.RealIP()
}

// BySubject keys requests on the authenticated subject and falls back to
// the client address. It only sees a subject when mounted after auth.
func BySubject(c echo.Context) string {
	if sub, ok := c.Get("auth_subject").(string); ok && sub != "" {
		return "sub:" + sub
	}
	return ByIP(c)
}

// bucket is a token bucket refilled continuously at rate tokens per second.
type bucket struct {
	mu     sync.Mutex
	tokens float64
	burst  float64
	rate   float64
	seen   time.Time
}

// take spends one token. When none is left it reports how many whole
// seconds until the next one.
func (b *bucket) take(now time.Time) (ok bool, wait int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = math.Min(b.burst, b.tokens+now.Sub(b.seen).Seconds()*b.rate)
	b.seen = now
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if b.rate <= 0 {
		return false, 1
	}
	return false, int((1-b.tokens)/b.rate) + 1
}

type limiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	buckets map[string]*bucket
}

func (l *limiter) bucket(key string, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			tokens: float64(l.cfg.BurstSize),
			burst:  float64(l.cfg.BurstSize),
			rate:   l.cfg.RequestsPerSecond,
			seen:   now,
		}
		l.buckets[key] = b
	}
	return b
}

// RateLimit allows cfg.RequestsPerSecond per key with bursts up to
// cfg.BurstSize and answers 429 with Retry-After once a bucket is empty.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Key == nil {
		cfg.Key = ByIP
	}
	l := &limiter{cfg: cfg, buckets: make(map[string]*bucket)}
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now()
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)

			ok, wait := l.bucket(cfg.Key(c), now).take(now)
			if !ok {
				h.Set("Retry-After", strconv.Itoa(wait))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
