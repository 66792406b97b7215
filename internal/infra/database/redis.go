package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisConnector connects to Redis.
type RedisConnector struct {
	cfg Config

	mu  sync.RWMutex
	rdb *redis.Client
}

// NewRedisConnector creates a Redis connector.
func NewRedisConnector(cfg Config) *RedisConnector {
	return &RedisConnector{cfg: cfg}
}

func (c *RedisConnector) Driver() string {
	return DriverRedis
}

// Client returns the shared client, or nil before the first successful Connect.
func (c *RedisConnector) Client() *redis.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rdb
}

func (c *RedisConnector) Connect(ctx context.Context) error {
	if c.Client() != nil {
		return nil
	}

	opts, err := redis.ParseURL(c.cfg.URL)
	if err != nil {
		return Classify(DriverRedis, fmt.Errorf("failed to parse redis URL: %w", err))
	}
	if c.cfg.MaxConns > 0 {
		opts.PoolSize = c.cfg.MaxConns
	}
	if c.cfg.MinConns > 0 {
		opts.MinIdleConns = c.cfg.MinConns
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := withConnectTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return Classify(DriverRedis, fmt.Errorf("failed to connect to redis: %w", err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rdb != nil {
		_ = rdb.Close()
		return nil
	}
	c.rdb = rdb
	return nil
}

func (c *RedisConnector) Ping(ctx context.Context) error {
	rdb := c.Client()
	if rdb == nil {
		return ErrNotConnected
	}
	return Classify(DriverRedis, rdb.Ping(ctx).Err())
}

// Close closes the Redis connection.
func (c *RedisConnector) Close(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rdb == nil {
		return nil
	}
	err := c.rdb.Close()
	c.rdb = nil
	return err
}
