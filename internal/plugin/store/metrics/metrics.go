package metrics

import (
	"context"
	"time"

	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/query"
	"github.com/chirino/media-tracker/internal/registry/store"
	"github.com/chirino/media-tracker/internal/security"
)

// Wrap returns a Store that records StoreLatency for every collection operation.
func Wrap(inner store.Store) store.Store {
	return &metricsStore{
		inner:        inner,
		categories:   wrap(store.CollectionCategories, inner.Categories()),
		groups:       wrap(store.CollectionGroups, inner.Groups()),
		ownPlatforms: wrap(store.CollectionOwnPlatforms, inner.OwnPlatforms()),
		books:        wrap(store.CollectionBooks, inner.Books()),
		movies:       wrap(store.CollectionMovies, inner.Movies()),
		tvShows:      wrap(store.CollectionTvShows, inner.TvShows()),
		videogames:   wrap(store.CollectionVideogames, inner.Videogames()),
	}
}

type metricsStore struct {
	inner        store.Store
	categories   store.Collection[model.Category]
	groups       store.Collection[model.Group]
	ownPlatforms store.Collection[model.OwnPlatform]
	books        store.Collection[model.Book]
	movies       store.Collection[model.Movie]
	tvShows      store.Collection[model.TvShow]
	videogames   store.Collection[model.Videogame]
}

func (m *metricsStore) Categories() store.Collection[model.Category] { return m.categories }
func (m *metricsStore) Groups() store.Collection[model.Group] { return m.groups }
func (m *metricsStore) OwnPlatforms() store.Collection[model.OwnPlatform] { return m.ownPlatforms }
func (m *metricsStore) Books() store.Collection[model.Book] { return m.books }
func (m *metricsStore) Movies() store.Collection[model.Movie] { return m.movies }
func (m *metricsStore) TvShows() store.Collection[model.TvShow] { return m.tvShows }
func (m *metricsStore) Videogames() store.Collection[model.Videogame] { return m.videogames }
func (m *metricsStore) Ping(ctx context.Context) error { return m.inner.Ping(ctx) }
func (m *metricsStore) Close(ctx context.Context) error { return m.inner.Close(ctx) }

type metricsCollection[E any] struct {
	name  string
	inner store.Collection[E]
}

func wrap[E any](name string, inner store.Collection[E]) store.Collection[E] {
	return &metricsCollection[E]{name: name, inner: inner}
}

func (m *metricsCollection[E]) observe(op string, start time.Time) {
	if security.StoreLatency == nil {
		return
	}
	security.StoreLatency.WithLabelValues(m.name, op).Observe(time.Since(start).Seconds())
}

func (m *metricsCollection[E]) FindOne(ctx context.Context, cond query.Condition) (*E, error) {
	defer m.observe("find_one", time.Now())
	return m.inner.FindOne(ctx, cond)
}

func (m *metricsCollection[E]) Find(ctx context.Context, cond query.Condition, order query.Ordering) ([]E, error) {
	defer m.observe("find", time.Now())
	return m.inner.Find(ctx, cond, order)
}

func (m *metricsCollection[E]) Count(ctx context.Context, cond query.Condition) (int64, error) {
	defer m.observe("count", time.Now())
	return m.inner.Count(ctx, cond)
}

func (m *metricsCollection[E]) Insert(ctx context.Context, doc *E) error {
	defer m.observe("insert", time.Now())
	return m.inner.Insert(ctx, doc)
}

func (m *metricsCollection[E]) Replace(ctx context.Context, id string, doc *E) error {
	defer m.observe("replace", time.Now())
	return m.inner.Replace(ctx, id, doc)
}

func (m *metricsCollection[E]) DeleteMany(ctx context.Context, cond query.Condition) (int64, error) {
	defer m.observe("delete_many", time.Now())
	return m.inner.DeleteMany(ctx, cond)
}

func (m *metricsCollection[E]) Unset(ctx context.Context, cond query.Condition, fields ...string) (int64, error) {
	defer m.observe("unset", time.Now())
	return m.inner.Unset(ctx, cond, fields...)
}
