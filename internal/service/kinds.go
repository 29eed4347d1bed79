package service

import (
	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/query"
)

func peopleSortField(key model.SortField, field string) func(model.SortField) ([]string, bool) {
	return func(f model.SortField) ([]string, bool) {
		if f == key {
			return []string{field}, true
		}
		return nil, false
	}
}

func kindFields(key model.SortField, field string) query.Fields {
	return query.Fields{
		SortField:    peopleSortField(key, field),
		SearchFields: []string{field},
		DefaultSort:  query.DefaultSort,
	}
}

var (
	BookKind = Kind[model.Book]{
		MediaType:   model.MediaTypeBook,
		Resource:    "book",
		Fields:      kindFields(model.SortAuthor, model.FieldAuthors),
		FromCatalog: model.BookFromCatalog,
	}
	MovieKind = Kind[model.Movie]{
		MediaType:   model.MediaTypeMovie,
		Resource:    "movie",
		Fields:      kindFields(model.SortDirector, model.FieldDirectors),
		FromCatalog: model.MovieFromCatalog,
	}
	TvShowKind = Kind[model.TvShow]{
		MediaType:   model.MediaTypeTvShow,
		Resource:    "tv show",
		Fields:      kindFields(model.SortCreator, model.FieldCreators),
		FromCatalog: model.TvShowFromCatalog,
	}
	VideogameKind = Kind[model.Videogame]{
		MediaType:   model.MediaTypeVideogame,
		Resource:    "videogame",
		Fields:      kindFields(model.SortDeveloper, model.FieldDevelopers),
		FromCatalog: model.VideogameFromCatalog,
	}
)
