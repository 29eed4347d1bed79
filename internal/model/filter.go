package model

// ReferenceFilter selects items by an optional reference (group, own platform).
// The selected alternatives are ORed together.
type ReferenceFilter struct {
	// Any matches items that reference something.
	Any bool `json:"any,omitempty"`
	// None matches items without a reference.
	None bool `json:"none,omitempty"`
	// IDs matches items referencing one of the given ids.
	IDs []string `json:"ids,omitempty"`
}

// IsEmpty reports whether no alternative is selected.
func (f *ReferenceFilter) IsEmpty() bool {
	return f == nil || (!f.Any && !f.None && len(f.IDs) == 0)
}

// MediaItemFilter narrows a media item listing. Every set field is ANDed.
type MediaItemFilter struct {
	Importance   []Importance     `json:"importance,omitempty"`
	Groups       *ReferenceFilter `json:"groups,omitempty"`
	OwnPlatforms *ReferenceFilter `json:"ownPlatforms,omitempty"`
	// Complete selects items with (true) or without (false) a completion date.
	Complete *bool `json:"complete,omitempty"`
	// Name is a case-insensitive term matched against the name and the
	// kind-specific people fields.
	Name string `json:"name,omitempty"`
}

// SortField names an ordering key in requests.
type SortField string

const (
	SortImportance     SortField = "IMPORTANCE"
	SortName           SortField = "NAME"
	SortGroup          SortField = "GROUP"
	SortOwnPlatform    SortField = "OWN_PLATFORM"
	SortCompletionDate SortField = "COMPLETION_DATE"
	SortActive         SortField = "ACTIVE"
	SortReleaseDate    SortField = "RELEASE_DATE"
	SortAuthor         SortField = "AUTHOR"
	SortDirector       SortField = "DIRECTOR"
	SortCreator        SortField = "CREATOR"
	SortDeveloper      SortField = "DEVELOPER"
)

// SortBy is one ordering key.
type SortBy struct {
	Field     SortField `json:"field"     binding:"required"`
	Ascending bool      `json:"ascending"`
}
