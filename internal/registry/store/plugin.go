package store

import (
	"context"
	"fmt"

	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/query"
)

// Collection names shared by every store plugin.
const (
	CollectionCategories   = "categories"
	CollectionGroups       = "groups"
	CollectionOwnPlatforms = "own_platforms"
	CollectionBooks        = "books"
	CollectionMovies       = "movies"
	CollectionTvShows      = "tv_shows"
	CollectionVideogames   = "videogames"
)

// Collections lists every collection name.
var Collections = []string{
	CollectionCategories, CollectionGroups, CollectionOwnPlatforms,
	CollectionBooks, CollectionMovies, CollectionTvShows, CollectionVideogames,
}

// Collection is a typed document collection.
type Collection[E any] interface {
	// FindOne returns the first matching document, or nil when nothing matches.
	FindOne(ctx context.Context, cond query.Condition) (*E, error)
	// Find returns every matching document sorted by order. A nil condition matches all.
	Find(ctx context.Context, cond query.Condition, order query.Ordering) ([]E, error)
	Count(ctx context.Context, cond query.Condition) (int64, error)
	Insert(ctx context.Context, doc *E) error
	// Replace overwrites the document with the given id. It fails with
	// *NotFoundError when no such document exists.
	Replace(ctx context.Context, id string, doc *E) error
	DeleteMany(ctx context.Context, cond query.Condition) (int64, error)
	// Unset removes the given fields from every matching document.
	Unset(ctx context.Context, cond query.Condition, fields ...string) (int64, error)
}

// Store gives access to every collection of the tracker.
type Store interface {
	Categories() Collection[model.Category]
	Groups() Collection[model.Group]
	OwnPlatforms() Collection[model.OwnPlatform]
	Books() Collection[model.Book]
	Movies() Collection[model.Movie]
	TvShows() Collection[model.TvShow]
	Videogames() Collection[model.Videogame]
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Loader creates a Store from config.
type Loader func(ctx context.Context) (Store, error)

// Plugin represents a store plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a store plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered store plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named store plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown store %q; valid: %v", name, Names())
}
