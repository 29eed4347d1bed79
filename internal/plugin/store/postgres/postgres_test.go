package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/chirino/media-tracker/internal/config"
	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/query"
	registrystore "github.com/chirino/media-tracker/internal/registry/store"
	"github.com/chirino/media-tracker/internal/testutil/testpg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := testpg.StartPostgres(t)

	cfg := config.DefaultConfig()
	cfg.DatastoreType = "postgres"
	cfg.DBURL = dbURL
	ctx := config.WithContext(context.Background(), &cfg)
	require.NoError(t, (&postgresMigrator{}).Migrate(ctx))
	// Migrations are idempotent.
	require.NoError(t, (&postgresMigrator{}).Migrate(ctx))

	db, err := open(&cfg)
	require.NoError(t, err)
	s, err := New(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	require.NoError(t, s.Ping(ctx))
	return s
}

func movie(id, name string, directors ...string) *model.Movie {
	m := &model.Movie{Directors: directors}
	m.ID = id
	m.Owner = "alice"
	m.Category = "c1"
	m.Name = name
	m.Importance = model.ImportanceNone
	m.CompletedOn = []time.Time{}
	return m
}

func TestPostgresStore_Collections(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	movies := s.Movies()

	watched := movie("m1", "Alien", "Ridley Scott")
	watched.CompletedOn = []time.Time{time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)}
	watched.Group = "g1"
	watched.OrderInGroup = 1
	require.NoError(t, movies.Insert(ctx, watched))
	require.NoError(t, movies.Insert(ctx, movie("m2", "Blade Runner", "Ridley Scott")))
	require.NoError(t, movies.Insert(ctx, movie("m3", "Heat", "Michael Mann")))

	t.Run("find one", func(t *testing.T) {
		got, err := movies.FindOne(ctx, query.ByID("alice", "m1"))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Alien", got.Name)
		assert.Equal(t, []string{"Ridley Scott"}, got.Directors)
		require.Len(t, got.CompletedOn, 1)
		assert.True(t, got.CompletedOn[0].Equal(time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)))

		missing, err := movies.FindOne(ctx, query.ByID("bob", "m1"))
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("filter and order", func(t *testing.T) {
		got, err := movies.Find(ctx, query.And{
			query.Eq{Field: model.FieldOwner, Value: "alice"},
			query.Match{Field: model.FieldDirectors, Term: "scott"},
			query.NonEmpty{Field: model.FieldCompletedOn, NonEmpty: false},
		}, query.Ordering{{Field: model.FieldName, Ascending: false}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "m2", got[0].ID)

		none, err := movies.Find(ctx, query.Exists{Field: model.FieldGroup, Exists: false},
			query.Ordering{{Field: model.FieldName, Ascending: true}})
		require.NoError(t, err)
		require.Len(t, none, 2)
		assert.Equal(t, "Blade Runner", none[0].Name)

		byDirector, err := movies.Find(ctx, query.Owned("alice"), query.Ordering{
			{Field: model.FieldDirectors, Ascending: true},
			{Field: model.FieldID, Ascending: true},
		})
		require.NoError(t, err)
		require.Len(t, byDirector, 3)
		assert.Equal(t, []string{"m3", "m1", "m2"}, []string{byDirector[0].ID, byDirector[1].ID, byDirector[2].ID})

		folded, err := movies.Find(ctx, query.EqFold{Field: model.FieldName, Value: "HEAT"}, nil)
		require.NoError(t, err)
		require.Len(t, folded, 1)
		assert.Equal(t, "m3", folded[0].ID)

		inDirectors, err := movies.Find(ctx, query.Eq{Field: model.FieldDirectors, Value: "Michael Mann"}, nil)
		require.NoError(t, err)
		require.Len(t, inDirectors, 1)
	})

	t.Run("duplicate id", func(t *testing.T) {
		var conflict *registrystore.ConflictError
		require.ErrorAs(t, movies.Insert(ctx, movie("m1", "Again")), &conflict)
		assert.Equal(t, "duplicate_id", conflict.Code)
	})

	t.Run("replace", func(t *testing.T) {
		updated := movie("m3", "Heat (1995)", "Michael Mann")
		require.NoError(t, movies.Replace(ctx, "m3", updated))
		got, err := movies.FindOne(ctx, query.ByID("alice", "m3"))
		require.NoError(t, err)
		assert.Equal(t, "Heat (1995)", got.Name)

		var notFound *registrystore.NotFoundError
		require.ErrorAs(t, movies.Replace(ctx, "m9", movie("m9", "Nope")), &notFound)
	})

	t.Run("unset", func(t *testing.T) {
		n, err := movies.Unset(ctx, query.Eq{Field: model.FieldGroup, Value: "g1"}, model.FieldGroup, model.FieldOrderInGroup)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		got, err := movies.FindOne(ctx, query.ByID("alice", "m1"))
		require.NoError(t, err)
		assert.Empty(t, got.Group)
		assert.Zero(t, got.OrderInGroup)
	})

	t.Run("delete and count", func(t *testing.T) {
		n, err := movies.DeleteMany(ctx, query.ByID("alice", "m2"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		count, err := movies.Count(ctx, query.Owned("alice"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestPostgresStore_Categories(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	c := &model.Category{Name: "Games", MediaType: model.MediaTypeVideogame}
	c.ID = "c1"
	c.Owner = "alice"
	require.NoError(t, s.Categories().Insert(ctx, c))

	got, err := s.Categories().FindOne(ctx, query.Owned("alice", query.Eq{Field: model.FieldMediaType, Value: model.MediaTypeVideogame}))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Games", got.Name)

	require.NoError(t, s.Groups().Insert(ctx, &model.Group{Entity: model.Entity{ID: "g1", Owner: "alice"}, Category: "c1", Name: "Backlog"}))
	n, err := s.Groups().Count(ctx, query.InCategory("alice", "c1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
