package model

import "time"

// SearchCatalogResult is one hit returned by an external catalog search.
type SearchCatalogResult struct {
	CatalogID   string     `json:"catalogId"`
	Name        string     `json:"name"`
	ReleaseDate *time.Time `json:"releaseDate,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
}

// CatalogMediaItem is the detail record of an external catalog entry. Only the
// fields relevant to the catalog's media type are populated.
type CatalogMediaItem struct {
	CatalogID   string     `json:"catalogId"`
	Name        string     `json:"name"`
	Genres      []string   `json:"genres,omitempty"`
	Description string     `json:"description,omitempty"`
	ReleaseDate *time.Time `json:"releaseDate,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`

	Authors     []string `json:"authors,omitempty"`
	PagesNumber int      `json:"pagesNumber,omitempty"`

	Directors []string `json:"directors,omitempty"`
	Duration  int      `json:"duration,omitempty"`

	Creators              []string       `json:"creators,omitempty"`
	AverageEpisodeRuntime int            `json:"averageEpisodeRuntime,omitempty"`
	EpisodesNumber        int            `json:"episodesNumber,omitempty"`
	SeasonsNumber         int            `json:"seasonsNumber,omitempty"`
	InProduction          bool           `json:"inProduction,omitempty"`
	NextEpisodeAirDate    *time.Time     `json:"nextEpisodeAirDate,omitempty"`
	Seasons               []TvShowSeason `json:"seasons,omitempty"`

	Developers    []string `json:"developers,omitempty"`
	Publishers    []string `json:"publishers,omitempty"`
	Platforms     []string `json:"platforms,omitempty"`
	AverageLength float64  `json:"averageLength,omitempty"`
}

// catalogBase copies the shared catalog fields into an unsaved media item.
func catalogBase(c *CatalogMediaItem) MediaItem {
	return MediaItem{
		Name:        c.Name,
		Genres:      c.Genres,
		Description: c.Description,
		ReleaseDate: c.ReleaseDate,
		ImageURL:    c.ImageURL,
		CatalogID:   c.CatalogID,
		Importance:  ImportanceNone,
		CompletedOn: []time.Time{},
	}
}

func BookFromCatalog(c *CatalogMediaItem) *Book {
	return &Book{MediaItem: catalogBase(c), Authors: c.Authors, PagesNumber: c.PagesNumber}
}

func MovieFromCatalog(c *CatalogMediaItem) *Movie {
	return &Movie{MediaItem: catalogBase(c), Directors: c.Directors, Duration: c.Duration}
}

func TvShowFromCatalog(c *CatalogMediaItem) *TvShow {
	return &TvShow{
		MediaItem:             catalogBase(c),
		Creators:              c.Creators,
		AverageEpisodeRuntime: c.AverageEpisodeRuntime,
		EpisodesNumber:        c.EpisodesNumber,
		SeasonsNumber:         c.SeasonsNumber,
		InProduction:          c.InProduction,
		NextEpisodeAirDate:    c.NextEpisodeAirDate,
		Seasons:               c.Seasons,
	}
}

func VideogameFromCatalog(c *CatalogMediaItem) *Videogame {
	return &Videogame{
		MediaItem:     catalogBase(c),
		Developers:    c.Developers,
		Publishers:    c.Publishers,
		Platforms:     c.Platforms,
		AverageLength: c.AverageLength,
	}
}
