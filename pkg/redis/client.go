package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/gem/pkg/config"
)

// dialCheckTimeout bounds the startup ping
const dialCheckTimeout = 3 * time.Second

// ErrDisabled is returned by Ping when caching is switched off
var ErrDisabled = errors.New("redis disabled")

// Client holds the series-cache connection. A disabled client makes every cache call a no-op
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb  *redis.Client
	addr string
}

// New connects when REDIS_ENABLED is set and fails fast if the server is unreachable
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	addr := fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port)
	c := &Client{
		addr: addr,
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialCheckTimeout)
	defer cancel()
	if _, err := c.Ping(ctx); err != nil {
		c.rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return c, nil
}

// NewFromRedis wraps an existing go-redis client (tests, shared pools)
func NewFromRedis(rdb *redis.Client) *Client {
	c := &Client{rdb: rdb}
	if rdb != nil {
		c.addr = rdb.Options().Addr
	}
	return c
}

// Ping measures a round trip to the server
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	if !c.Enabled() {
		return 0, ErrDisabled
	}
	start := time.Now()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

func (c *Client) Enabled() bool { return c.rdb != nil }

// Addr is the "host:port" the client talks to, empty when disabled
func (c *Client) Addr() string { return c.addr }

// Redis exposes the go-redis client to the cache layer
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
