package lockout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter is a Counter backed by Redis, for deployments running more
// than one engine instance behind a load balancer. The window is enforced
// with a key TTL set on the first failure.
type RedisCounter struct {
	client *redis.Client
	window time.Duration
}

// NewRedisCounter creates a RedisCounter with the given window.
func NewRedisCounter(client *redis.Client, window time.Duration) *RedisCounter {
	return &RedisCounter{client: client, window: window}
}

// RecordFailure increments the identity's failure count, starting the window
// on the first failure.
func (c *RedisCounter) RecordFailure(ctx context.Context, identity string) (int, error) {
	key := c.key(identity)

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// NX keeps the original window start; later failures don't extend it.
	pipe.ExpireNX(ctx, key, c.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record failure for %q: %w", identity, err)
	}

	return int(incr.Val()), nil
}

// FailureCount returns the identity's live failure count.
func (c *RedisCounter) FailureCount(ctx context.Context, identity string) (int, error) {
	count, err := c.client.Get(ctx, c.key(identity)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read failure count for %q: %w", identity, err)
	}
	return count, nil
}

// Reset clears the identity's window.
func (c *RedisCounter) Reset(ctx context.Context, identity string) error {
	if err := c.client.Del(ctx, c.key(identity)).Err(); err != nil {
		return fmt.Errorf("failed to reset failures for %q: %w", identity, err)
	}
	return nil
}

func (c *RedisCounter) key(identity string) string {
	return "riskgate:failed_attempts:" + identity
}
