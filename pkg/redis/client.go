package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/profitlens/profitlens-backend/pkg/config"
)

const (
	keyNamespace  = "pl"
	reportPrefix  = "report"
	versionPrefix = "dataset_version"
)

// Client wraps the redis helpers the report cache needs. A nil *Client is
// valid and turns every operation into a no-op miss, so the API runs without
// redis configured.
type Client struct {
	raw *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// New bootstraps a Redis client and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	return opts, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.raw == nil {
		return errors.New("redis client not configured")
	}
	return c.raw.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// Get fetches a cached string, mapping redis.Nil to ErrCacheMiss.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c == nil || c.raw == nil {
		return "", ErrCacheMiss
	}
	val, err := c.raw.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Set(ctx, key, value, ttl).Err()
}

// Incr bumps and returns a counter key.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	if c == nil || c.raw == nil {
		return 0, nil
	}
	return c.raw.Incr(ctx, key).Result()
}

// ReportKey builds a namespaced cache key for a computed report.
func ReportKey(parts ...string) string {
	return strings.Join(append([]string{keyNamespace, reportPrefix}, parts...), ":")
}

// DatasetVersionKey names the counter bumped on every import; report cache
// keys embed the counter so uploads invalidate stale reports implicitly.
func DatasetVersionKey() string {
	return keyNamespace + ":" + versionPrefix
}
