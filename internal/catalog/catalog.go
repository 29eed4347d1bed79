// Package catalog looks up media in external catalogs so that users can
// create items from catalog entries.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/chirino/media-tracker/internal/model"
)

var (
	// ErrNotFound is returned when the catalog has no entry for an id.
	ErrNotFound = errors.New("catalog entry not found")
	// ErrUnsupported is returned for media types without a configured catalog.
	ErrUnsupported = errors.New("no catalog configured for media type")
)

// Provider is an external catalog of one media type.
type Provider interface {
	// Name identifies the provider in cache keys and metrics.
	Name() string
	Search(ctx context.Context, term string) ([]model.SearchCatalogResult, error)
	// Details fails with ErrNotFound for unknown ids.
	Details(ctx context.Context, catalogID string) (*model.CatalogMediaItem, error)
}

// Catalogs maps media types to their provider.
type Catalogs struct {
	providers map[model.MediaType]Provider
}

// New returns the catalogs for the given providers.
func New(providers map[model.MediaType]Provider) *Catalogs {
	if providers == nil {
		providers = map[model.MediaType]Provider{}
	}
	return &Catalogs{providers: providers}
}

// For returns the provider of a media type.
func (c *Catalogs) For(mediaType model.MediaType) (Provider, error) {
	if c != nil {
		if p, ok := c.providers[mediaType]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, mediaType)
}

// MediaTypes lists the media types with a provider.
func (c *Catalogs) MediaTypes() []model.MediaType {
	var out []model.MediaType
	for _, mt := range model.MediaTypes {
		if _, ok := c.providers[mt]; ok {
			out = append(out, mt)
		}
	}
	return out
}
