package model

import "time"

// Importance ranks media items. Levels compare lexically in the stores.
type Importance string

const (
	ImportanceNone   Importance = "100"
	ImportanceLow    Importance = "200"
	ImportanceMedium Importance = "300"
	ImportanceHigh   Importance = "400"
)

// MediaItem holds the fields shared by every media kind.
type MediaItem struct {
	Entity       `bson:",inline"`
	Category     string      `json:"category"              bson:"category"              validate:"required"`
	Group        string      `json:"group,omitempty"       bson:"group,omitempty"`
	OrderInGroup int         `json:"orderInGroup,omitempty" bson:"orderInGroup,omitempty" validate:"gte=0"`
	OwnPlatform  string      `json:"ownPlatform,omitempty" bson:"ownPlatform,omitempty"`
	Name         string      `json:"name"                  bson:"name"                  validate:"required"`
	Genres       []string    `json:"genres,omitempty"      bson:"genres,omitempty"`
	Description  string      `json:"description,omitempty" bson:"description,omitempty"`
	ReleaseDate  *time.Time  `json:"releaseDate,omitempty" bson:"releaseDate,omitempty"`
	ImageURL     string      `json:"imageUrl,omitempty"    bson:"imageUrl,omitempty"`
	CatalogID    string      `json:"catalogId,omitempty"   bson:"catalogId,omitempty"`
	Importance   Importance  `json:"importance"            bson:"importance"            validate:"omitempty,oneof=100 200 300 400"`
	UserComment  string      `json:"userComment,omitempty" bson:"userComment,omitempty"`
	CompletedOn  []time.Time `json:"completedOn"           bson:"completedOn"`
	Active       bool        `json:"active"                bson:"active"`
	MarkedAsRedo bool        `json:"markedAsRedo"          bson:"markedAsRedo"`
}

// Base returns the shared part of a media item.
func (m *MediaItem) Base() *MediaItem { return m }

// IsComplete reports whether the item has been completed at least once.
func (m *MediaItem) IsComplete() bool { return len(m.CompletedOn) > 0 }

// Item is implemented by pointers to every media kind.
type Item interface {
	Persisted
	Base() *MediaItem
}

// ItemPtr constrains a type parameter to a pointer to a media kind.
type ItemPtr[E any] interface {
	*E
	Item
}

type Book struct {
	MediaItem   `bson:",inline"`
	Authors     []string `json:"authors,omitempty"     bson:"authors,omitempty"`
	PagesNumber int      `json:"pagesNumber,omitempty" bson:"pagesNumber,omitempty" validate:"gte=0"`
}

type Movie struct {
	MediaItem `bson:",inline"`
	Directors []string `json:"directors,omitempty" bson:"directors,omitempty"`
	// Duration in minutes.
	Duration int `json:"duration,omitempty" bson:"duration,omitempty" validate:"gte=0"`
}

// TvShowSeason tracks watching progress for one season.
type TvShowSeason struct {
	Number                int `json:"number"                bson:"number"`
	EpisodesNumber        int `json:"episodesNumber"        bson:"episodesNumber"`
	WatchedEpisodesNumber int `json:"watchedEpisodesNumber" bson:"watchedEpisodesNumber"`
}

type TvShow struct {
	MediaItem             `bson:",inline"`
	Creators              []string       `json:"creators,omitempty"              bson:"creators,omitempty"`
	AverageEpisodeRuntime int            `json:"averageEpisodeRuntime,omitempty" bson:"averageEpisodeRuntime,omitempty"`
	EpisodesNumber        int            `json:"episodesNumber,omitempty"        bson:"episodesNumber,omitempty"`
	SeasonsNumber         int            `json:"seasonsNumber,omitempty"         bson:"seasonsNumber,omitempty"`
	InProduction          bool           `json:"inProduction"                    bson:"inProduction"`
	NextEpisodeAirDate    *time.Time     `json:"nextEpisodeAirDate,omitempty"    bson:"nextEpisodeAirDate,omitempty"`
	Seasons               []TvShowSeason `json:"seasons,omitempty"               bson:"seasons,omitempty"`
}

type Videogame struct {
	MediaItem  `bson:",inline"`
	Developers []string `json:"developers,omitempty" bson:"developers,omitempty"`
	Publishers []string `json:"publishers,omitempty" bson:"publishers,omitempty"`
	Platforms  []string `json:"platforms,omitempty"  bson:"platforms,omitempty"`
	// AverageLength in hours.
	AverageLength float64 `json:"averageLength,omitempty" bson:"averageLength,omitempty" validate:"gte=0"`
}
