// Package legacy imports the full-data export of the previous application
// into the tracker's normalized model.
package legacy

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// Export is a legacy full-data dump: a list of categories, each carrying its
// items in the old flat shape. Both a bare array and an object with a
// "categories" key are accepted.
type Export struct {
	Categories []Category `json:"categories"`
}

func (e *Export) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &e.Categories)
	}
	type plain Export
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*e = Export(p)
	return nil
}

// Category is a legacy category.
type Category struct {
	ID    Value  `json:"ID"`
	Name  Value  `json:"NAME"`
	Type  Value  `json:"TYPE"`
	Color Value  `json:"COLOR"`
	Items []Item `json:"ITEMS"`
}

// Item is a legacy media item. Every field is a loosely typed string; kind
// specific fields are only set for items of the matching category type.
type Item struct {
	ID             Value `json:"ID"`
	Name           Value `json:"NAME"`
	Genres         Value `json:"GENRES"`
	Description    Value `json:"DESCRIPTION"`
	ReleaseDate    Value `json:"RELEASE_DATE"`
	ImageURL       Value `json:"IMAGE_URL"`
	CatalogID      Value `json:"CATALOG_ID"`
	Importance     Value `json:"IMPORTANCE"`
	UserComment    Value `json:"USER_COMMENT"`
	CompletionDate Value `json:"COMPLETION_DATE"`
	TimesCompleted Value `json:"TIMES_COMPLETED"`
	Active         Value `json:"ACTIVE"`
	Owned          Value `json:"OWNED"`

	Author      Value `json:"AUTHOR"`
	PagesNumber Value `json:"PAGES_NUMBER"`

	Director Value `json:"DIRECTOR"`
	Duration Value `json:"DURATION"`

	Creator            Value `json:"CREATOR"`
	EpisodeRuntime     Value `json:"EPISODE_RUNTIME"`
	EpisodesNumber     Value `json:"EPISODES_NUMBER"`
	SeasonsNumber      Value `json:"SEASONS_NUMBER"`
	InProduction       Value `json:"IN_PRODUCTION"`
	NextEpisodeAirDate Value `json:"NEXT_EPISODE_AIR_DATE"`

	Developer     Value `json:"DEVELOPER"`
	Publisher     Value `json:"PUBLISHER"`
	Platforms     Value `json:"PLATFORMS"`
	AverageLength Value `json:"AVERAGE_LENGTH"`
}

// Value is a legacy scalar. The old application wrote every column as a
// string, but numbers, booleans and null are accepted too. Null reads as "".
type Value string

func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*v = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = Value(s)
	case bytes.Equal(trimmed, []byte("true")):
		*v = "1"
	case bytes.Equal(trimmed, []byte("false")):
		*v = "0"
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("legacy value %s: %w", trimmed, err)
		}
		*v = Value(n.String())
	}
	return nil
}

// String returns the value without surrounding blanks.
func (v Value) String() string {
	return string(bytes.TrimSpace([]byte(v)))
}

// Int parses the value as an integer. Blank or malformed values read as 0.
func (v Value) Int() int {
	return int(v.Float())
}

// Count parses the value as a non-negative integer counter no larger than
// limit. A blank value reads as 0.
func (v Value) Count(limit int) (int, error) {
	s := v.String()
	if s == "" {
		return 0, nil
	}
	n, err := cast.ToIntE(s)
	if f, ferr := cast.ToFloat64E(s); err != nil || ferr != nil || f != float64(n) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if n < 0 || n > limit {
		return 0, fmt.Errorf("%d is outside 0..%d", n, limit)
	}
	return n, nil
}

// Float parses the value as a number. Blank or malformed values read as 0.
func (v Value) Float() float64 {
	return cast.ToFloat64(v.String())
}
