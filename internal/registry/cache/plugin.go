// Package cache defines the catalog response cache and its backends.
package cache

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

// CatalogCache stores encoded external catalog responses.
type CatalogCache interface {
	// Available reports whether the cache stores anything at all.
	Available() bool
	// Get returns the cached value, or nil when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A zero ttl uses the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Loader opens a cache using the config carried by ctx.
type Loader func(ctx context.Context) (CatalogCache, error)

// Plugin is a named cache backend.
type Plugin struct {
	Name   string
	Loader Loader
}

// ErrUnknownCache is returned by Select for names no backend registered.
var ErrUnknownCache = errors.New("unknown cache")

var backends = map[string]Loader{}

// Register adds a cache backend. A later registration replaces an earlier
// one of the same name.
func Register(p Plugin) {
	backends[p.Name] = p.Loader
}

// Names lists the registered backends alphabetically.
func Names() []string {
	return slices.Sorted(maps.Keys(backends))
}

// Select returns the loader of the named backend.
func Select(name string) (Loader, error) {
	if loader, ok := backends[name]; ok {
		return loader, nil
	}
	return nil, fmt.Errorf("%w %q; valid: %v", ErrUnknownCache, name, Names())
}
