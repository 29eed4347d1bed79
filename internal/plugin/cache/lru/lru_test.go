package lru

import (
	"context"
	"testing"
	"time"

	"github.com/chirino/media-tracker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)
	c, err := New(2, time.Hour, func() time.Time { return now })
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.True(t, c.Available())

	got, err := c.Get(ctx, "movie:603")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, "movie:603", []byte(`{"name":"The Matrix"}`), 0))
	got, err = c.Get(ctx, "movie:603")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"The Matrix"}`, string(got))

	t.Run("evicts least recently used", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "tv:1396", []byte(`{}`), 0))
		// Touch movie:603 so tv:1396 is the eviction candidate.
		_, _ = c.Get(ctx, "movie:603")
		require.NoError(t, c.Set(ctx, "movie:500", []byte(`{}`), 0))

		got, err := c.Get(ctx, "tv:1396")
		require.NoError(t, err)
		assert.Nil(t, got)
		got, err = c.Get(ctx, "movie:603")
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("expires entries", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "short", []byte(`{}`), time.Minute))
		now = now.Add(2 * time.Minute)
		got, err := c.Get(ctx, "short")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, c.Remove(ctx, "movie:603"))
		got, err := c.Get(ctx, "movie:603")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestLoadUsesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CacheLRUSize = 1
	c, err := load(config.WithContext(context.Background(), &cfg))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	_, err := New(0, time.Hour, nil)
	assert.Error(t, err)
}
