package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/media-tracker/internal/model"
	registrycache "github.com/chirino/media-tracker/internal/registry/cache"
	"github.com/chirino/media-tracker/internal/security"
	"github.com/goccy/go-json"
)

// Cached decorates a provider with a catalog cache. Cache failures are logged
// and fall through to the provider.
type Cached struct {
	inner Provider
	cache registrycache.CatalogCache
	ttl   time.Duration
}

// WithCache wraps p. An unavailable cache returns p unchanged.
func WithCache(p Provider, cache registrycache.CatalogCache, ttl time.Duration) Provider {
	if cache == nil || !cache.Available() {
		return p
	}
	return &Cached{inner: p, cache: cache, ttl: ttl}
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) Search(ctx context.Context, term string) ([]model.SearchCatalogResult, error) {
	key := c.inner.Name() + ":search:" + strings.ToLower(strings.TrimSpace(term))
	return cachedLookup(ctx, c, key, func() ([]model.SearchCatalogResult, error) {
		return c.inner.Search(ctx, term)
	})
}

func (c *Cached) Details(ctx context.Context, catalogID string) (*model.CatalogMediaItem, error) {
	key := c.inner.Name() + ":details:" + catalogID
	return cachedLookup(ctx, c, key, func() (*model.CatalogMediaItem, error) {
		return c.inner.Details(ctx, catalogID)
	})
}

func cachedLookup[T any](ctx context.Context, c *Cached, key string, fetch func() (T, error)) (T, error) {
	if data, err := c.cache.Get(ctx, key); err != nil {
		log.Warn("Catalog cache read failed", "key", key, "err", err)
	} else if data != nil {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			security.RecordCacheLookup(c.inner.Name(), true)
			return cached, nil
		}
		log.Warn("Discarding undecodable catalog cache entry", "key", key)
	}
	security.RecordCacheLookup(c.inner.Name(), false)

	value, err := fetch()
	if err != nil {
		return value, err
	}
	data, err := json.Marshal(value)
	if err == nil {
		err = c.cache.Set(ctx, key, data, c.ttl)
	}
	if err != nil {
		log.Warn("Catalog cache write failed", "key", key, "err", err)
	}
	return value, nil
}
