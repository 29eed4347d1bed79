package noop

import (
	"context"
	"time"

	"github.com/chirino/media-tracker/internal/registry/cache"
)

func init() {
	cache.Register(cache.Plugin{
		Name: "none",
		Loader: func(ctx context.Context) (cache.CatalogCache, error) {
			return &noopCatalogCache{}, nil
		},
	})
}

type noopCatalogCache struct{}

func (n *noopCatalogCache) Available() bool { return false }
func (n *noopCatalogCache) Get(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}
func (n *noopCatalogCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}
func (n *noopCatalogCache) Remove(_ context.Context, _ string) error { return nil }
func (n *noopCatalogCache) Close() error { return nil }

var _ cache.CatalogCache = (*noopCatalogCache)(nil)
