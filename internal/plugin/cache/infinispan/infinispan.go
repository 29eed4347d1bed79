// Package infinispan caches catalog responses in Infinispan through its RESP
// endpoint, sharing the redis backend's implementation.
package infinispan

import (
	"context"
	"errors"
	"net"

	"github.com/chirino/media-tracker/internal/config"
	"github.com/chirino/media-tracker/internal/plugin/cache/redis"
	registrycache "github.com/chirino/media-tracker/internal/registry/cache"
	goredis "github.com/redis/go-redis/v9"
)

// defaultPort is the single port Infinispan serves every protocol on.
const defaultPort = "11222"

func init() {
	registrycache.Register(registrycache.Plugin{Name: "infinispan", Loader: load})
}

func load(ctx context.Context) (registrycache.CatalogCache, error) {
	cfg := config.FromContext(ctx)
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.InfinispanStartupTimeout)
	defer cancel()
	return redis.LoadFromOptionsWithTTL(ctx, opts, cfg.CatalogCacheTTL)
}

func clientOptions(cfg *config.Config) (*goredis.Options, error) {
	if cfg == nil || cfg.InfinispanHost == "" {
		return nil, errors.New("infinispan cache: MEDIA_TRACKER_INFINISPAN_HOST is required")
	}
	addr := cfg.InfinispanHost
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, defaultPort)
	}
	return &goredis.Options{
		Addr:     addr,
		Username: cfg.InfinispanUsername,
		Password: cfg.InfinispanPassword,
		// RESP3 HELLO is not implemented by the endpoint.
		Protocol: 2,
	}, nil
}
