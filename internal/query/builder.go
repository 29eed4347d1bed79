package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chirino/media-tracker/internal/model"
)

// ErrUnknownSortField is returned when a sort key is not supported by a media kind.
var ErrUnknownSortField = errors.New("unknown sort field")

// Fields describes how one media kind takes part in filtering and ordering.
type Fields struct {
	// SortField resolves kind-specific sort keys. Unresolved keys fall back to
	// the fields shared by every kind.
	SortField func(model.SortField) ([]string, bool)
	// SearchFields are matched by the free-text term together with the name.
	SearchFields []string
	// DefaultSort applies when a request carries no ordering.
	DefaultSort []model.SortBy
}

// DefaultSort orders by name.
var DefaultSort = []model.SortBy{{Field: model.SortName, Ascending: true}}

func sharedSortField(field model.SortField) ([]string, bool) {
	switch field {
	case model.SortImportance:
		return []string{model.FieldImportance}, true
	case model.SortName:
		return []string{model.FieldName}, true
	case model.SortGroup:
		return []string{model.FieldGroup, model.FieldOrderInGroup}, true
	case model.SortOwnPlatform:
		return []string{model.FieldOwnPlatform}, true
	case model.SortCompletionDate:
		return []string{model.FieldCompletedOn}, true
	case model.SortActive:
		return []string{model.FieldActive}, true
	case model.SortReleaseDate:
		return []string{model.FieldReleaseDate}, true
	}
	return nil, false
}

// Owned restricts a condition to the documents of one user.
func Owned(userID string, conds ...Condition) Condition {
	return All(append([]Condition{Eq{Field: model.FieldOwner, Value: userID}}, conds...)...)
}

// ByID matches one document of a user.
func ByID(userID, id string) Condition {
	return Owned(userID, Eq{Field: model.FieldID, Value: id})
}

// InCategory matches the documents of a user inside one category.
func InCategory(userID, categoryID string, conds ...Condition) Condition {
	return Owned(userID, append([]Condition{Eq{Field: model.FieldCategory, Value: categoryID}}, conds...)...)
}

// FilterCondition builds the condition listing a user's items of one category.
func FilterCondition(userID, categoryID string, filter *model.MediaItemFilter, fields Fields) Condition {
	return InCategory(userID, categoryID, filterConditions(filter, fields)...)
}

// SearchCondition builds the condition searching a user's items of every
// category by term, narrowed by filter.
func SearchCondition(userID, term string, filter *model.MediaItemFilter, fields Fields) Condition {
	conds := []Condition{TermCondition(term, fields.SearchFields)}
	return Owned(userID, append(conds, filterConditions(filter, fields)...)...)
}

// TermCondition matches term against the name and the extra search fields.
// A blank term yields nil.
func TermCondition(term string, extra []string) Condition {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	alts := []Condition{Match{Field: model.FieldName, Term: term}}
	for _, f := range extra {
		alts = append(alts, Match{Field: f, Term: term})
	}
	return Any(alts...)
}

func filterConditions(filter *model.MediaItemFilter, fields Fields) []Condition {
	if filter == nil {
		return nil
	}
	var conds []Condition
	if len(filter.Importance) > 0 {
		values := make([]any, len(filter.Importance))
		for i, imp := range filter.Importance {
			values[i] = string(imp)
		}
		conds = append(conds, In{Field: model.FieldImportance, Values: values})
	}
	if c := referenceCondition(model.FieldGroup, filter.Groups); c != nil {
		conds = append(conds, c)
	}
	if c := referenceCondition(model.FieldOwnPlatform, filter.OwnPlatforms); c != nil {
		conds = append(conds, c)
	}
	if filter.Complete != nil {
		conds = append(conds, NonEmpty{Field: model.FieldCompletedOn, NonEmpty: *filter.Complete})
	}
	if c := TermCondition(filter.Name, fields.SearchFields); c != nil {
		conds = append(conds, c)
	}
	return conds
}

func referenceCondition(field string, f *model.ReferenceFilter) Condition {
	if f.IsEmpty() {
		return nil
	}
	var alts []Condition
	if f.Any {
		alts = append(alts, Exists{Field: field, Exists: true})
	}
	if f.None {
		alts = append(alts, Exists{Field: field, Exists: false})
	}
	if len(f.IDs) > 0 {
		values := make([]any, len(f.IDs))
		for i, id := range f.IDs {
			values[i] = id
		}
		alts = append(alts, In{Field: field, Values: values})
	}
	return Any(alts...)
}

// OrderingFor resolves request sort keys into a document ordering. An empty
// request uses the kind default. The id is always the final key so that the
// result is deterministic.
func OrderingFor(sortBy []model.SortBy, fields Fields) (Ordering, error) {
	if len(sortBy) == 0 {
		sortBy = fields.DefaultSort
		if len(sortBy) == 0 {
			sortBy = DefaultSort
		}
	}
	var order Ordering
	seen := map[string]bool{}
	add := func(field string, asc bool) {
		if seen[field] {
			return
		}
		seen[field] = true
		order = append(order, Sort{Field: field, Ascending: asc})
	}
	for _, s := range sortBy {
		paths, ok := resolveSortField(s.Field, fields)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSortField, s.Field)
		}
		for _, p := range paths {
			add(p, s.Ascending)
		}
	}
	add(model.FieldID, true)
	return order, nil
}

func resolveSortField(field model.SortField, fields Fields) ([]string, bool) {
	if fields.SortField != nil {
		if paths, ok := fields.SortField(field); ok {
			return paths, true
		}
	}
	return sharedSortField(field)
}
