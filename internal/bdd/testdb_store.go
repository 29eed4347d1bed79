package bdd

import (
	"context"
	"fmt"

	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/query"
	registrystore "github.com/chirino/media-tracker/internal/registry/store"
)

// StoreTestDB implements cucumber.TestDB on top of the store the server under
// test uses, so one implementation serves every backend.
type StoreTestDB struct {
	Store registrystore.Store
}

type counter interface {
	Count(ctx context.Context, cond query.Condition) (int64, error)
	DeleteMany(ctx context.Context, cond query.Condition) (int64, error)
}

func (db *StoreTestDB) collections() map[string]counter {
	return map[string]counter{
		registrystore.CollectionCategories:   db.Store.Categories(),
		registrystore.CollectionGroups:       db.Store.Groups(),
		registrystore.CollectionOwnPlatforms: db.Store.OwnPlatforms(),
		registrystore.CollectionBooks:        db.Store.Books(),
		registrystore.CollectionMovies:       db.Store.Movies(),
		registrystore.CollectionTvShows:      db.Store.TvShows(),
		registrystore.CollectionVideogames:   db.Store.Videogames(),
	}
}

func (db *StoreTestDB) ClearAll(ctx context.Context) error {
	for name, c := range db.collections() {
		if _, err := c.DeleteMany(ctx, nil); err != nil {
			return fmt.Errorf("clear %s: %w", name, err)
		}
	}
	return nil
}

func (db *StoreTestDB) CountItems(ctx context.Context, collection, owner string) (int, error) {
	c, ok := db.collections()[collection]
	if !ok {
		return 0, fmt.Errorf("unknown collection %q", collection)
	}
	n, err := c.Count(ctx, query.Eq{Field: model.FieldOwner, Value: owner})
	return int(n), err
}
