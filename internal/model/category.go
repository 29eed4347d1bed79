package model

import "strings"

// MediaType tags the kind of media items a category holds.
type MediaType string

const (
	MediaTypeBook      MediaType = "BOOK"
	MediaTypeMovie     MediaType = "MOVIE"
	MediaTypeTvShow    MediaType = "TV_SHOW"
	MediaTypeVideogame MediaType = "VIDEOGAME"
)

// MediaTypes lists every supported media type.
var MediaTypes = []MediaType{MediaTypeBook, MediaTypeMovie, MediaTypeTvShow, MediaTypeVideogame}

// ParseMediaType resolves a media type name case-insensitively. Spaces and
// dashes are accepted in place of underscores ("tv-show", "Tv Show").
func ParseMediaType(s string) (MediaType, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "BOOK", "BOOKS":
		return MediaTypeBook, true
	case "MOVIE", "MOVIES":
		return MediaTypeMovie, true
	case "TV_SHOW", "TV_SHOWS", "TVSHOW", "TVSHOWS":
		return MediaTypeTvShow, true
	case "VIDEOGAME", "VIDEOGAMES", "VIDEO_GAME", "VIDEO_GAMES":
		return MediaTypeVideogame, true
	}
	return "", false
}

// Category is a user-owned bucket of media items of a single media type.
type Category struct {
	Entity    `bson:",inline"`
	Name      string    `json:"name"            bson:"name"            validate:"required"`
	MediaType MediaType `json:"mediaType"       bson:"mediaType"       validate:"required,oneof=BOOK MOVIE TV_SHOW VIDEOGAME"`
	Color     string    `json:"color,omitempty" bson:"color,omitempty"`
}

// Group is an ordered series of media items inside one category (a saga, a trilogy).
type Group struct {
	Entity   `bson:",inline"`
	Category string `json:"category" bson:"category" validate:"required"`
	Name     string `json:"name"     bson:"name"     validate:"required"`
}

func (g *Group) GetCategory() string { return g.Category }
func (g *Group) SetCategory(id string) { g.Category = id }
func (g *Group) GetName() string { return g.Name }
func (g *Group) SetName(name string) { g.Name = name }

// OwnPlatform is where the user owns a media item (a shelf, a store account, a console).
type OwnPlatform struct {
	Entity   `bson:",inline"`
	Category string `json:"category"       bson:"category"       validate:"required"`
	Name     string `json:"name"           bson:"name"           validate:"required"`
	Icon     string `json:"icon,omitempty" bson:"icon,omitempty"`
}

func (p *OwnPlatform) GetCategory() string { return p.Category }
func (p *OwnPlatform) SetCategory(id string) { p.Category = id }
func (p *OwnPlatform) GetName() string { return p.Name }
func (p *OwnPlatform) SetName(name string) { p.Name = name }

// Scoped is implemented by records that live inside a single category.
type Scoped interface {
	Persisted
	GetCategory() string
	SetCategory(id string)
	GetName() string
	SetName(name string)
}

// ScopedPtr constrains a type parameter to a pointer to a category-scoped record.
type ScopedPtr[E any] interface {
	*E
	Scoped
}
