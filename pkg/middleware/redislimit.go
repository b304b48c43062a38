package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/razeathletics/storefront/pkg/errors"
	"github.com/razeathletics/storefront/pkg/httputil"
)

// slidingWindow trims the window, counts it and admits the request if there
// is room, all in one round trip. Returns the new count or -1 when full.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  return -1
end
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window)
return count + 1
`)

// SlidingWindowLimiter is a Redis-backed limiter shared by every replica.
// It guards the abuse-prone endpoints (login, waitlist join, promo
// validation) more tightly than the global per-IP bucket.
type SlidingWindowLimiter struct {
	client redis.Scripter
	name   string
	limit  int
	window time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewSlidingWindowLimiter allows limit requests per window per client IP.
func NewSlidingWindowLimiter(client redis.Scripter, name string, limit int, window time.Duration, logger *slog.Logger) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		client: client,
		name:   name,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Handler returns the middleware. Redis failures let the request through.
func (l *SlidingWindowLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		key := fmt.Sprintf("ratelimit:%s:%s", l.name, ip)

		res, err := slidingWindow.Run(r.Context(), l.client, []string{key},
			l.now().UnixMilli(), l.window.Milliseconds(), l.limit, uuid.NewString(),
		).Int()
		if err != nil {
			l.logger.WarnContext(r.Context(), "rate limiter unavailable, allowing request",
				slog.String("limiter", l.name),
				slog.String("error", err.Error()),
			)
			next.ServeHTTP(w, r)
			return
		}

		if res < 0 {
			rateLimitRejections.WithLabelValues(l.name).Inc()
			l.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("limiter", l.name),
				slog.String("ip", ip),
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			httputil.WriteError(w, r, apperrors.RateLimited(), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
