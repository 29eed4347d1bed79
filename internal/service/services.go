package service

import (
	"time"

	"github.com/chirino/media-tracker/internal/model"
	registrystore "github.com/chirino/media-tracker/internal/registry/store"
)

type (
	BookService      = MediaItemService[model.Book, *model.Book]
	MovieService     = MediaItemService[model.Movie, *model.Movie]
	TvShowService    = MediaItemService[model.TvShow, *model.TvShow]
	VideogameService = MediaItemService[model.Videogame, *model.Videogame]

	GroupService       = ContainerService[model.Group, *model.Group]
	OwnPlatformService = ContainerService[model.OwnPlatform, *model.OwnPlatform]
)

// Services bundles the services built around one store.
type Services struct {
	Categories   *CategoryService
	Groups       *GroupService
	OwnPlatforms *OwnPlatformService
	Books        *BookService
	Movies       *MovieService
	TvShows      *TvShowService
	Videogames   *VideogameService
}

// Option customizes New.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds the services on top of st.
func New(st registrystore.Store, opts ...Option) *Services {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}

	books := newMediaItemService[model.Book, *model.Book](BookKind, st.Books(), st, o.now)
	movies := newMediaItemService[model.Movie, *model.Movie](MovieKind, st.Movies(), st, o.now)
	tvShows := newMediaItemService[model.TvShow, *model.TvShow](TvShowKind, st.TvShows(), st, o.now)
	videogames := newMediaItemService[model.Videogame, *model.Videogame](VideogameKind, st.Videogames(), st, o.now)

	contents := map[model.MediaType]categoryContents{
		model.MediaTypeBook:      books,
		model.MediaTypeMovie:     movies,
		model.MediaTypeTvShow:    tvShows,
		model.MediaTypeVideogame: videogames,
	}
	all := []categoryContents{books, movies, tvShows, videogames}

	return &Services{
		Categories: &CategoryService{
			categories: st.Categories(),
			groups:     st.Groups(),
			platforms:  st.OwnPlatforms(),
			contents:   contents,
			now:        o.now,
		},
		Groups: &GroupService{
			resource:   "group",
			field:      model.FieldGroup,
			docs:       st.Groups(),
			categories: st.Categories(),
			contents:   all,
			now:        o.now,
		},
		OwnPlatforms: &OwnPlatformService{
			resource:   "own platform",
			field:      model.FieldOwnPlatform,
			docs:       st.OwnPlatforms(),
			categories: st.Categories(),
			contents:   all,
			now:        o.now,
		},
		Books:      books,
		Movies:     movies,
		TvShows:    tvShows,
		Videogames: videogames,
	}
}
