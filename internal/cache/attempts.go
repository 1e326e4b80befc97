package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptTracker counts resolution attempts per market. It only observes:
// a high count means the sink keeps reporting the market as Closed.
type AttemptTracker interface {
	Record(ctx context.Context, marketID uint64) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

type redisAttemptTracker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisAttemptTracker(addr, password string, db int, ttl time.Duration, prefix string) (AttemptTracker, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if prefix == "" {
		prefix = "oracle_attempts"
	}
	return &redisAttemptTracker{client: client, ttl: ttl, prefix: prefix}, nil
}

func (c *redisAttemptTracker) key(marketID uint64) string {
	return fmt.Sprintf("%s:%d", c.prefix, marketID)
}

// Record increments the counter and refreshes its TTL.
func (c *redisAttemptTracker) Record(ctx context.Context, marketID uint64) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	key := c.key(marketID)
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Ping checks the connection; callers drop the tracker when it fails.
func (c *redisAttemptTracker) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return c.client.Ping(ctx).Err()
}

func (c *redisAttemptTracker) count(ctx context.Context, marketID uint64) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	val, err := c.client.Get(ctx, c.key(marketID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (c *redisAttemptTracker) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
