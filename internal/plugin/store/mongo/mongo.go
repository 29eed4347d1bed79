package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/chirino/media-tracker/internal/config"
	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/query"
	registrymigrate "github.com/chirino/media-tracker/internal/registry/migrate"
	registrystore "github.com/chirino/media-tracker/internal/registry/store"
	"github.com/chirino/media-tracker/internal/security"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "mongo",
		Loader: func(ctx context.Context) (registrystore.Store, error) {
			cfg := config.FromContext(ctx)
			client, err := connect(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return New(client, cfg.DBName), nil
		},
	})

	registrymigrate.Register(registrymigrate.Plugin{Store: "mongo", Order: 100, Migrator: &mongoMigrator{}})
}

func connect(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(cfg.DBURL).SetPoolMonitor(poolMonitor())
	if cfg.DBMaxOpenConns > 0 {
		opts.SetMaxPoolSize(uint64(cfg.DBMaxOpenConns))
	}
	if cfg.DBMaxIdleConns > 0 {
		opts.SetMinPoolSize(uint64(cfg.DBMaxIdleConns))
	}
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// poolMonitor tracks open connections in the DB pool gauge once metrics are
// initialized.
func poolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			gauge := security.DBPoolOpenConnections
			if gauge == nil {
				return
			}
			switch e.Type {
			case event.ConnectionCreated:
				gauge.Inc()
			case event.ConnectionClosed:
				gauge.Dec()
			}
		},
	}
}

// MongoStore implements registrystore.Store using MongoDB.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// New returns a store over the named database of client.
func New(client *mongo.Client, dbName string) *MongoStore {
	if dbName == "" {
		dbName = config.DefaultConfig().DBName
	}
	return &MongoStore{client: client, db: client.Database(dbName)}
}

func (s *MongoStore) Categories() registrystore.Collection[model.Category] {
	return newCollection[model.Category](s.db, registrystore.CollectionCategories)
}

func (s *MongoStore) Groups() registrystore.Collection[model.Group] {
	return newCollection[model.Group](s.db, registrystore.CollectionGroups)
}

func (s *MongoStore) OwnPlatforms() registrystore.Collection[model.OwnPlatform] {
	return newCollection[model.OwnPlatform](s.db, registrystore.CollectionOwnPlatforms)
}

func (s *MongoStore) Books() registrystore.Collection[model.Book] {
	return newCollection[model.Book](s.db, registrystore.CollectionBooks)
}

func (s *MongoStore) Movies() registrystore.Collection[model.Movie] {
	return newCollection[model.Movie](s.db, registrystore.CollectionMovies)
}

func (s *MongoStore) TvShows() registrystore.Collection[model.TvShow] {
	return newCollection[model.TvShow](s.db, registrystore.CollectionTvShows)
}

func (s *MongoStore) Videogames() registrystore.Collection[model.Videogame] {
	return newCollection[model.Videogame](s.db, registrystore.CollectionVideogames)
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ registrystore.Store = (*MongoStore)(nil)

type collection[E any] struct {
	name string
	coll *mongo.Collection
}

func newCollection[E any](db *mongo.Database, name string) *collection[E] {
	return &collection[E]{name: name, coll: db.Collection(name)}
}

func (c *collection[E]) FindOne(ctx context.Context, cond query.Condition) (*E, error) {
	var doc E
	err := c.coll.FindOne(ctx, toFilter(cond)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, registrystore.Wrap("find_one", c.name, err)
	}
	return &doc, nil
}

func (c *collection[E]) Find(ctx context.Context, cond query.Condition, order query.Ordering) ([]E, error) {
	opts := options.Find()
	if len(order) > 0 {
		opts.SetSort(toSort(order))
	}
	cur, err := c.coll.Find(ctx, toFilter(cond), opts)
	if err != nil {
		return nil, registrystore.Wrap("find", c.name, err)
	}
	docs := []E{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, registrystore.Wrap("find", c.name, fmt.Errorf("failed to decode: %w", err))
	}
	return docs, nil
}

func (c *collection[E]) Count(ctx context.Context, cond query.Condition) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, toFilter(cond))
	return n, registrystore.Wrap("count", c.name, err)
}

func (c *collection[E]) Insert(ctx context.Context, doc *E) error {
	_, err := c.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return &registrystore.ConflictError{
			Message: fmt.Sprintf("%s already holds this document", c.name),
			Code:    "duplicate_id",
		}
	}
	return registrystore.Wrap("insert", c.name, err)
}

func (c *collection[E]) Replace(ctx context.Context, id string, doc *E) error {
	res, err := c.coll.ReplaceOne(ctx, bson.M{model.FieldID: id}, doc)
	if err != nil {
		return registrystore.Wrap("replace", c.name, err)
	}
	if res.MatchedCount == 0 {
		return &registrystore.NotFoundError{Resource: c.name, ID: id}
	}
	return nil
}

func (c *collection[E]) DeleteMany(ctx context.Context, cond query.Condition) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, toFilter(cond))
	if err != nil {
		return 0, registrystore.Wrap("delete_many", c.name, err)
	}
	return res.DeletedCount, nil
}

func (c *collection[E]) Unset(ctx context.Context, cond query.Condition, fields ...string) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	unset := bson.M{}
	for _, f := range fields {
		unset[f] = ""
	}
	res, err := c.coll.UpdateMany(ctx, toFilter(cond), bson.M{"$unset": unset})
	if err != nil {
		return 0, registrystore.Wrap("unset", c.name, err)
	}
	return res.ModifiedCount, nil
}
