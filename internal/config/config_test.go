package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogEnabled(t *testing.T) {
	var nilCfg *Config
	require.False(t, nilCfg.CatalogEnabled())

	cfg := DefaultConfig()
	require.False(t, cfg.CatalogEnabled())

	cfg.TMDBToken = " token "
	require.True(t, cfg.CatalogEnabled())
}

func TestContextRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), &cfg)
	require.Same(t, &cfg, FromContext(ctx))
	require.Nil(t, FromContext(context.Background()))
}
