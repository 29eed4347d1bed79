package bdd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chirino/media-tracker/internal/cmd/serve"
	"github.com/chirino/media-tracker/internal/config"
	"github.com/chirino/media-tracker/internal/testutil/cucumber"
	"github.com/stretchr/testify/require"

	// Import plugins to trigger init() registration
	_ "github.com/chirino/media-tracker/internal/plugin/cache/noop"
	_ "github.com/chirino/media-tracker/internal/plugin/route/system"
	_ "github.com/chirino/media-tracker/internal/plugin/store/memory"
)

func TestFeatures(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DatastoreType = "memory"
	cfg.CacheType = "none"
	runFeatures(t, &cfg, nil)
}

// runFeatures starts a server for cfg and runs every feature file against it.
// Features named in skip are reported as skipped.
func runFeatures(t *testing.T, cfg *config.Config, skip map[string]bool) {
	t.Helper()
	cfg.Mode = config.ModeTesting
	cfg.Listener.Port = 0
	cfg.Listener.EnableTLS = false
	ctx := config.WithContext(context.Background(), cfg)

	srv, err := serve.StartServer(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	featureFiles, err := filepath.Glob(filepath.Join("testdata", "features", "*.feature"))
	require.NoError(t, err)
	require.NotEmpty(t, featureFiles, "no feature files under testdata/features")

	suite := cucumber.NewTestSuite(fmt.Sprintf("http://localhost:%d", srv.Running.Port))
	suite.DB = &StoreTestDB{Store: srv.Store}

	for _, path := range featureFiles {
		if name := strings.TrimSuffix(filepath.Base(path), ".feature"); skip[name] {
			t.Run(name, func(t *testing.T) { t.Skipf("not supported on %s", cfg.DatastoreType) })
			continue
		}
		suite.RunFeature(t, path)
	}
}
