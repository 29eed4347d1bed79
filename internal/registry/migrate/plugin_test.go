package migrate

import (
	"context"
	"errors"
	"testing"

	"github.com/chirino/media-tracker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMigrator struct {
	name string
	err  error
	log  *[]string
}

func (m recordingMigrator) Name() string { return m.name }

func (m recordingMigrator) Migrate(context.Context) error {
	*m.log = append(*m.log, m.name)
	return m.err
}

func withPlugins(t *testing.T, ps ...Plugin) {
	t.Helper()
	saved := plugins
	plugins = ps
	t.Cleanup(func() { plugins = saved })
}

func TestRunAllSelectsDatastoreInOrder(t *testing.T) {
	var ran []string
	withPlugins(t,
		Plugin{Store: "postgres", Order: 20, Migrator: recordingMigrator{name: "pg-indexes", log: &ran}},
		Plugin{Store: "mongo", Order: 10, Migrator: recordingMigrator{name: "mongo-schema", log: &ran}},
		Plugin{Order: 30, Migrator: recordingMigrator{name: "shared", log: &ran}},
		Plugin{Store: "postgres", Order: 10, Migrator: recordingMigrator{name: "pg-schema", log: &ran}},
	)

	cfg := config.DefaultConfig()
	cfg.DatastoreType = "postgres"
	require.NoError(t, RunAll(config.WithContext(context.Background(), &cfg)))
	assert.Equal(t, []string{"pg-schema", "pg-indexes", "shared"}, ran)
}

func TestRunAllStopsAtFirstFailure(t *testing.T) {
	var ran []string
	boom := errors.New("relation already exists")
	withPlugins(t,
		Plugin{Order: 1, Migrator: recordingMigrator{name: "first", err: boom, log: &ran}},
		Plugin{Order: 2, Migrator: recordingMigrator{name: "second", log: &ran}},
	)

	err := RunAll(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "migration first failed")
	assert.Equal(t, []string{"first"}, ran)
}
