package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/meeting-followup/pkg/config"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Println("✅ Redis connected successfully")
	return client, nil
}

// usageKeyTTL keeps a month's counter alive well past the month boundary so
// late reads still see it, without accumulating keys forever.
const usageKeyTTL = 40 * 24 * time.Hour

// RedisUsageCounter tracks monthly draft generation counts in Redis.
type RedisUsageCounter struct {
	client *redis.Client
}

// NewRedisUsageCounter creates a Redis-backed usage counter
func NewRedisUsageCounter(client *redis.Client) *RedisUsageCounter {
	return &RedisUsageCounter{client: client}
}

func usageKey(accountID, month string) string {
	return fmt.Sprintf("quota:%s:%s", accountID, month)
}

// GetUsage returns the count for an account in a month
func (c *RedisUsageCounter) GetUsage(ctx context.Context, accountID, month string) (int, error) {
	val, err := c.client.Get(ctx, usageKey(accountID, month)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

// IncrementUsage adds one to the count and returns the new value
func (c *RedisUsageCounter) IncrementUsage(ctx context.Context, accountID, month string) (int, error) {
	key := usageKey(accountID, month)
	val, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		c.client.Expire(ctx, key, usageKeyTTL)
	}
	return int(val), nil
}

// RedisPollCursor stores each account's last poll time.
type RedisPollCursor struct {
	client *redis.Client
}

// NewRedisPollCursor creates a Redis-backed poll cursor
func NewRedisPollCursor(client *redis.Client) *RedisPollCursor {
	return &RedisPollCursor{client: client}
}

func cursorKey(accountID string) string {
	return fmt.Sprintf("pollcursor:%s", accountID)
}

// GetLastPoll returns the stored cursor, zero time when absent
func (c *RedisPollCursor) GetLastPoll(ctx context.Context, accountID string) (time.Time, error) {
	val, err := c.client.Get(ctx, cursorKey(accountID)).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, val)
}

// SetLastPoll stores the cursor with a 24h TTL; a lost cursor only widens
// the next scan back to the full lookback window.
func (c *RedisPollCursor) SetLastPoll(ctx context.Context, accountID string, t time.Time) error {
	return c.client.Set(ctx, cursorKey(accountID), t.UTC().Format(time.RFC3339), 24*time.Hour).Err()
}
