package legacyimport

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chirino/media-tracker/internal/config"
	"github.com/chirino/media-tracker/internal/legacy"
	"github.com/chirino/media-tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const export = `[
  {"ID": "1", "NAME": "Reading", "TYPE": "BOOK", "ITEMS": [
    {"ID": "10", "NAME": "Dune", "AUTHOR": "Frank Herbert", "OWNED": "1", "PAGES_NUMBER": "412"},
    {"ID": "11", "NAME": "Hyperion", "AUTHOR": "Dan Simmons"}
  ]}
]`

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func memoryConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.DatastoreType = "memory"
	return &cfg
}

func TestRun(t *testing.T) {
	cfg := memoryConfig()
	ctx := config.WithContext(context.Background(), cfg)

	stats, err := Run(ctx, cfg, "alice", writeExport(t, export), legacy.Options{PlatformName: "Shelf"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Categories)
	assert.Equal(t, 2, stats.Items)
	assert.Equal(t, 1, stats.OwnPlatforms)
	assert.Equal(t, 2, stats.ItemsByType[model.MediaTypeBook])
}

func TestRunFailures(t *testing.T) {
	cfg := memoryConfig()
	ctx := config.WithContext(context.Background(), cfg)

	_, err := Run(ctx, cfg, " ", writeExport(t, export), legacy.Options{})
	assert.ErrorContains(t, err, "--user")

	_, err = Run(ctx, cfg, "alice", filepath.Join(t.TempDir(), "missing.json"), legacy.Options{})
	assert.ErrorContains(t, err, "read legacy export")

	_, err = Run(ctx, cfg, "alice", writeExport(t, "{broken"), legacy.Options{})
	assert.ErrorContains(t, err, "parse legacy export")
}

func TestCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := Command()
	cmd.Writer = &out
	path := writeExport(t, export)

	err := cmd.Run(context.Background(), []string{"import", "--db-kind", "memory", "--user", "bob", "--file", path})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "imported 1 categories, 2 items and 1 own platforms")
}
