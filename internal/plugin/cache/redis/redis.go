package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chirino/media-tracker/internal/config"
	registrycache "github.com/chirino/media-tracker/internal/registry/cache"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultTTL = 6 * time.Hour
	keyPrefix  = "media-tracker:catalog:"
)

func init() {
	registrycache.Register(registrycache.Plugin{
		Name:   "redis",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycache.CatalogCache, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil || cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis cache: MEDIA_TRACKER_REDIS_URL is required")
	}
	return LoadFromURLWithTTL(ctx, cfg.RedisURL, cfg.CatalogCacheTTL)
}

// LoadFromURLWithTTL creates a cache from a Redis-compatible URL.
func LoadFromURLWithTTL(ctx context.Context, redisURL string, ttl time.Duration) (registrycache.CatalogCache, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: invalid URL: %w", err)
	}
	return LoadFromOptionsWithTTL(ctx, opts, ttl)
}

// LoadFromOptionsWithTTL creates a cache from go-redis Options.
// This allows callers to customize options (e.g. Protocol for RESP2).
func LoadFromOptionsWithTTL(ctx context.Context, opts *goredis.Options, ttl time.Duration) (registrycache.CatalogCache, error) {
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis cache: ping failed: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisCatalogCache{client: client, ttl: ttl}, nil
}

type redisCatalogCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func (c *redisCatalogCache) Available() bool {
	return true
}

func (c *redisCatalogCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *redisCatalogCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	return c.client.Set(ctx, keyPrefix+key, value, ttl).Err()
}

func (c *redisCatalogCache) Remove(ctx context.Context, key string) error {
	return c.client.Del(ctx, keyPrefix+key).Err()
}

func (c *redisCatalogCache) Close() error {
	return c.client.Close()
}

var _ registrycache.CatalogCache = (*redisCatalogCache)(nil)
