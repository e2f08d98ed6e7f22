package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RequestThrottle implements a fixed-window counter per normalized email and
// per client IP, backed by Redis.
// Key format: throttle:<scope>:<value>:<window_start_unix>
type RequestThrottle struct {
	client   *redis.Client
	perEmail int
	perIP    int
	window   time.Duration
}

// NewRequestThrottle creates a RequestThrottle wrapping the given Redis
// client. Non-positive limits or window fall back to defaults.
func NewRequestThrottle(client *redis.Client, perEmail, perIP int, window time.Duration) *RequestThrottle {
	if perEmail <= 0 {
		perEmail = 5
	}
	if perIP <= 0 {
		perIP = 20
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RequestThrottle{client: client, perEmail: perEmail, perIP: perIP, window: window}
}

// AllowEmail reports whether another code request is permitted for this email
// in the current window. The current attempt is counted.
func (t *RequestThrottle) AllowEmail(ctx context.Context, email string) (bool, error) {
	return t.allow(ctx, "email", email, t.perEmail)
}

// AllowIP reports whether another code request is permitted from this address
// in the current window. The current attempt is counted.
func (t *RequestThrottle) AllowIP(ctx context.Context, ip string) (bool, error) {
	return t.allow(ctx, "ip", ip, t.perIP)
}

func (t *RequestThrottle) allow(ctx context.Context, scope, value string, limit int) (bool, error) {
	key := t.key(scope, value)

	pipe := t.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("throttle %s: %w", scope, err)
	}

	return count.Val() <= int64(limit), nil
}

func (t *RequestThrottle) key(scope, value string) string {
	windowStart := time.Now().Unix() / int64(t.window.Seconds())
	return fmt.Sprintf("throttle:%s:%s:%d", scope, value, windowStart)
}
