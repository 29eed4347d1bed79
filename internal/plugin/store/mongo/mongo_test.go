package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/query"
	registrystore "github.com/chirino/media-tracker/internal/registry/store"
	"github.com/chirino/media-tracker/internal/testutil/testmongo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func setupTestStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := testmongo.StartMongo(t)

	ctx := context.Background()
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	s := New(client, "media_tracker_test")
	require.NoError(t, EnsureIndexes(ctx, s.db))
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

func TestMongoStore_Collections(t *testing.T) {
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
	})

	t.Run("duplicate id", func(t *testing.T) {
		var conflict *registrystore.ConflictError
		require.ErrorAs(t, movies.Insert(ctx, movie("m1", "Again")), &conflict)
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
