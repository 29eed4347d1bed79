// Package local provides an in-process catalog cache backed by ristretto.
package local

import (
	"context"
	"fmt"
	"time"

	"github.com/chirino/media-tracker/internal/config"
	registrycache "github.com/chirino/media-tracker/internal/registry/cache"
	"github.com/dgraph-io/ristretto/v2"
)

const (
	defaultMaxCost = 64 * 1024 * 1024
	defaultTTL     = 6 * time.Hour
)

func init() {
	registrycache.Register(registrycache.Plugin{
		Name:   "local",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycache.CatalogCache, error) {
	maxCost, ttl := int64(defaultMaxCost), defaultTTL
	if cfg := config.FromContext(ctx); cfg != nil {
		if cfg.CacheLocalMaxCost > 0 {
			maxCost = cfg.CacheLocalMaxCost
		}
		if cfg.CatalogCacheTTL > 0 {
			ttl = cfg.CatalogCacheTTL
		}
	}
	return New(maxCost, ttl)
}

// New creates a cache holding up to maxCost bytes of values.
func New(maxCost int64, ttl time.Duration) (registrycache.CatalogCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		// About ten counters per expected entry, assuming 1KiB values.
		NumCounters: max(maxCost/1024*10, 1000),
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("local cache: %w", err)
	}
	return &localCatalogCache{cache: c, ttl: ttl}, nil
}

type localCatalogCache struct {
	cache *ristretto.Cache[string, []byte]
	ttl   time.Duration
}

func (c *localCatalogCache) Available() bool { return true }

func (c *localCatalogCache) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := c.cache.Get(key)
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (c *localCatalogCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	c.cache.SetWithTTL(key, value, int64(len(value)), ttl)
	// Make the value visible to the next Get.
	c.cache.Wait()
	return nil
}

func (c *localCatalogCache) Remove(_ context.Context, key string) error {
	c.cache.Del(key)
	return nil
}

func (c *localCatalogCache) Close() error {
	c.cache.Close()
	return nil
}

var _ registrycache.CatalogCache = (*localCatalogCache)(nil)
