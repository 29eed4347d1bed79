package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	saved := backends
	backends = map[string]Loader{}
	t.Cleanup(func() { backends = saved })

	opened := ""
	Register(Plugin{Name: "redis", Loader: func(context.Context) (CatalogCache, error) { opened = "redis"; return nil, nil }})
	Register(Plugin{Name: "lru", Loader: func(context.Context) (CatalogCache, error) { opened = "lru"; return nil, nil }})
	assert.Equal(t, []string{"lru", "redis"}, Names())

	loader, err := Select("lru")
	require.NoError(t, err)
	_, _ = loader(context.Background())
	assert.Equal(t, "lru", opened)

	_, err = Select("memcached")
	require.ErrorIs(t, err, ErrUnknownCache)
	assert.Contains(t, err.Error(), `"memcached"`)
}
