package infinispan

import (
	"testing"

	"github.com/chirino/media-tracker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := clientOptions(&cfg)
	require.ErrorContains(t, err, "MEDIA_TRACKER_INFINISPAN_HOST")

	cfg.InfinispanHost = "cache.internal"
	cfg.InfinispanUsername = "tracker"
	opts, err := clientOptions(&cfg)
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:11222", opts.Addr)
	assert.Equal(t, "tracker", opts.Username)
	assert.Equal(t, 2, opts.Protocol)

	cfg.InfinispanHost = "localhost:6379"
	opts, err = clientOptions(&cfg)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
}
