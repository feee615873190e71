// Package idempotency remembers which webhook events were already accepted so a
// redelivered notification does not produce a second report.
package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetNXer is the slice of the Redis API the guard needs.
type SetNXer interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type Guard struct {
	rdb    SetNXer
	ttl    time.Duration
	prefix string
}

// New returns nil when rdb is nil; a nil Guard claims every event.
func New(rdb SetNXer, ttl time.Duration, prefix string) *Guard {
	if rdb == nil {
		return nil
	}
	if c, ok := rdb.(*redis.Client); ok && c == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	if prefix == "" {
		prefix = "uxr:event:"
	}
	return &Guard{rdb: rdb, ttl: ttl, prefix: prefix}
}

// Claim reports whether eventID is seen for the first time. On a Redis error the
// event is claimed anyway and the error is returned for logging.
func (g *Guard) Claim(ctx context.Context, eventID string) (bool, error) {
	if g == nil || eventID == "" {
		return true, nil
	}
	ok, err := g.rdb.SetNX(ctx, g.prefix+eventID, time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return true, err
	}
	return ok, nil
}
