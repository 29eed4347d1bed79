package mongo

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chirino/media-tracker/internal/config"
	"github.com/chirino/media-tracker/internal/model"
	registrystore "github.com/chirino/media-tracker/internal/registry/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type mongoMigrator struct{}

func (m *mongoMigrator) Name() string { return "mongo-schema" }

func (m *mongoMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil || !cfg.DatastoreMigrateAtStart {
		return nil
	}
	log.Info("Running migration", "name", m.Name())
	client, err := connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("mongo migration: %w", err)
	}
	defer client.Disconnect(ctx)

	return EnsureIndexes(ctx, New(client, cfg.DBName).db)
}

// collectionIndexes lists the indexes of every collection. Names are not unique
// per owner because categories may be saved with allowSameName.
func collectionIndexes() map[string][]mongo.IndexModel {
	itemIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: model.FieldOwner, Value: 1}, {Key: model.FieldCategory, Value: 1}, {Key: model.FieldName, Value: 1}}},
		{Keys: bson.D{{Key: model.FieldOwner, Value: 1}, {Key: model.FieldGroup, Value: 1}, {Key: model.FieldOrderInGroup, Value: 1}}},
		{Keys: bson.D{{Key: model.FieldOwner, Value: 1}, {Key: model.FieldOwnPlatform, Value: 1}}},
		{Keys: bson.D{{Key: model.FieldOwner, Value: 1}, {Key: model.FieldName, Value: 1}}},
	}
	scoped := []mongo.IndexModel{
		{Keys: bson.D{{Key: model.FieldOwner, Value: 1}, {Key: model.FieldCategory, Value: 1}, {Key: model.FieldName, Value: 1}}},
	}
	return map[string][]mongo.IndexModel{
		registrystore.CollectionCategories: {
			{Keys: bson.D{{Key: model.FieldOwner, Value: 1}, {Key: model.FieldName, Value: 1}}},
		},
		registrystore.CollectionGroups:       scoped,
		registrystore.CollectionOwnPlatforms: scoped,
		registrystore.CollectionBooks:        itemIndexes,
		registrystore.CollectionMovies:       itemIndexes,
		registrystore.CollectionTvShows:      itemIndexes,
		registrystore.CollectionVideogames:   itemIndexes,
	}
}

// EnsureIndexes creates every collection and its indexes. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for name, indexes := range collectionIndexes() {
		// Ensure collection exists
		_ = db.CreateCollection(ctx, name)
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("mongo migration: failed to create indexes for %s: %w", name, err)
		}
	}
	log.Info("MongoDB schema migration complete")
	return nil
}
