package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"verdant/internal/pkg/logger"
)

// Client wraps go-redis so call sites depend on our package, not the driver.
type Client struct {
	rdb *goredis.Client
}

// NewClient dials redis and verifies the connection with a short ping.
func NewClient(addr string) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	logger.Logger().Info().Str("addr", addr).Msg("connected to redis")
	return &Client{rdb: rdb}, nil
}

// GetClient exposes the raw client for pipeline use.
func (c *Client) GetClient() *goredis.Client {
	return c.rdb
}

// Get returns the value at key, or ("", false, nil) on a miss.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores value at key with a TTL.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Del removes keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
