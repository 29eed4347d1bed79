package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chirino/media-tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	searches int
	details  int
	err      error
}

func (p *countingProvider) Name() string { return "fake" }

func (p *countingProvider) Search(_ context.Context, term string) ([]model.SearchCatalogResult, error) {
	p.searches++
	if p.err != nil {
		return nil, p.err
	}
	return []model.SearchCatalogResult{{CatalogID: "1", Name: term}}, nil
}

func (p *countingProvider) Details(_ context.Context, id string) (*model.CatalogMediaItem, error) {
	p.details++
	if p.err != nil {
		return nil, p.err
	}
	return &model.CatalogMediaItem{CatalogID: id, Name: "Heat", Directors: []string{"Michael Mann"}}, nil
}

type mapCache struct {
	data map[string][]byte
}

func (c *mapCache) Available() bool { return true }
func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	return c.data[key], nil
}
func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}
func (c *mapCache) Remove(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}
func (c *mapCache) Close() error { return nil }

func TestCachedProvider(t *testing.T) {
	ctx := context.Background()
	inner := &countingProvider{}
	p := WithCache(inner, &mapCache{data: map[string][]byte{}}, time.Hour)

	for range 2 {
		results, err := p.Search(ctx, "Heat")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Heat", results[0].Name)
	}
	assert.Equal(t, 1, inner.searches)

	// Terms are cached case-insensitively.
	_, err := p.Search(ctx, " heat ")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.searches)

	for range 2 {
		item, err := p.Details(ctx, "949")
		require.NoError(t, err)
		assert.Equal(t, []string{"Michael Mann"}, item.Directors)
	}
	assert.Equal(t, 1, inner.details)
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	inner := &countingProvider{err: errors.New("boom")}
	p := WithCache(inner, &mapCache{data: map[string][]byte{}}, time.Hour)

	_, err := p.Details(ctx, "1")
	require.Error(t, err)
	_, err = p.Details(ctx, "1")
	require.Error(t, err)
	assert.Equal(t, 2, inner.details)
}

func TestCatalogs(t *testing.T) {
	inner := &countingProvider{}
	c := New(map[model.MediaType]Provider{model.MediaTypeMovie: inner})

	p, err := c.For(model.MediaTypeMovie)
	require.NoError(t, err)
	assert.Equal(t, "fake", p.Name())

	_, err = c.For(model.MediaTypeBook)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, []model.MediaType{model.MediaTypeMovie}, c.MediaTypes())
}
