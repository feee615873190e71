package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Counter increments a windowed counter and returns the new value.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisCounter struct{ rdb *redis.Client }

// NewRedisCounter returns nil when rdb is nil so the limiter lets everything through.
func NewRedisCounter(rdb *redis.Client) Counter {
	if rdb == nil {
		return nil
	}
	return &redisCounter{rdb: rdb}
}

// Incr does INCR and sets expiry 2*window in one round trip.
func (r *redisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.rdb.Pipeline()
	cnt := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return cnt.Val(), nil
}

// RateLimitConfig config for the per-IP limiter.
type RateLimitConfig struct {
	Counter        Counter
	RPS            int
	KeyPrefix      string        // e.g. "uxr:rl:ip:"
	Window         time.Duration // usually 1s
	RetryAfterHint bool
	Now            func() time.Time
}

// RateLimitMiddleware applies a fixed-window per-client-IP limit.
func RateLimitMiddleware(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "uxr:rl:ip:"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.RPS <= 0 || cfg.Counter == nil {
				// no limit configured or redis missing (dev): allow
				return next(c)
			}

			// fixed-window key: prefix{ip}:{window index}
			now := cfg.Now()
			slot := now.UnixNano() / int64(cfg.Window)
			key := cfg.KeyPrefix + c.RealIP() + ":" + strconv.FormatInt(slot, 10)

			cnt, err := cfg.Counter.Incr(c.Request().Context(), key, cfg.Window)
			if err != nil {
				return next(c)
			}

			if cnt > int64(cfg.RPS) {
				if cfg.RetryAfterHint {
					remain := cfg.Window - time.Duration(now.UnixNano()%int64(cfg.Window))
					secs := int(remain.Round(time.Second) / time.Second)
					if secs < 1 {
						secs = 1
					}
					c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				}
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
			}
			return next(c)
		}
	}
}
