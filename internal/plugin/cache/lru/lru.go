// Package lru provides a bounded in-process catalog cache that evicts the
// least recently used entry once the entry budget is reached.
package lru

import (
	"context"
	"fmt"
	"time"

	"github.com/chirino/media-tracker/internal/config"
	registrycache "github.com/chirino/media-tracker/internal/registry/cache"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultSize = 10000
	defaultTTL  = 6 * time.Hour
)

func init() {
	registrycache.Register(registrycache.Plugin{
		Name:   "lru",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycache.CatalogCache, error) {
	size, ttl := defaultSize, defaultTTL
	if cfg := config.FromContext(ctx); cfg != nil {
		if cfg.CacheLRUSize > 0 {
			size = cfg.CacheLRUSize
		}
		if cfg.CatalogCacheTTL > 0 {
			ttl = cfg.CatalogCacheTTL
		}
	}
	return New(size, ttl, time.Now)
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// New creates a cache holding up to size entries. A nil now uses the wall clock.
func New(size int, ttl time.Duration, now func() time.Time) (registrycache.CatalogCache, error) {
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("lru cache: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &lruCatalogCache{storage: c, ttl: ttl, now: now}, nil
}

type lruCatalogCache struct {
	storage *lru.Cache[string, entry]
	ttl     time.Duration
	now     func() time.Time
}

func (c *lruCatalogCache) Available() bool { return true }

func (c *lruCatalogCache) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := c.storage.Get(key)
	if !ok {
		return nil, nil
	}
	if !c.now().Before(e.expiresAt) {
		c.storage.Remove(key)
		return nil, nil
	}
	return e.value, nil
}

func (c *lruCatalogCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	c.storage.Add(key, entry{value: value, expiresAt: c.now().Add(ttl)})
	return nil
}

func (c *lruCatalogCache) Remove(_ context.Context, key string) error {
	c.storage.Remove(key)
	return nil
}

func (c *lruCatalogCache) Close() error {
	c.storage.Purge()
	return nil
}

var _ registrycache.CatalogCache = (*lruCatalogCache)(nil)
