package query

import (
	"errors"
	"testing"

	"github.com/chirino/media-tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookFields = Fields{
	SortField: func(f model.SortField) ([]string, bool) {
		if f == model.SortAuthor {
			return []string{model.FieldAuthors}, true
		}
		return nil, false
	},
	SearchFields: []string{model.FieldAuthors},
}

func TestAllAndAnyDropNil(t *testing.T) {
	assert.Nil(t, All())
	assert.Nil(t, Any(nil, nil))

	eq := Eq{Field: "a", Value: "b"}
	assert.Equal(t, eq, All(nil, eq))
	assert.Equal(t, Or{eq, eq}, Any(eq, nil, eq))
}

func TestFilterCondition_NilFilterOnlyScopes(t *testing.T) {
	cond := FilterCondition("u1", "c1", nil, bookFields)
	assert.Equal(t, And{
		Eq{Field: model.FieldOwner, Value: "u1"},
		Eq{Field: model.FieldCategory, Value: "c1"},
	}, cond)
}

func TestFilterCondition_AllFields(t *testing.T) {
	complete := true
	filter := &model.MediaItemFilter{
		Importance:   []model.Importance{model.ImportanceHigh},
		Groups:       &model.ReferenceFilter{None: true, IDs: []string{"g1"}},
		OwnPlatforms: &model.ReferenceFilter{Any: true},
		Complete:     &complete,
		Name:         " dune ",
	}

	cond := FilterCondition("u1", "c1", filter, bookFields)
	and, ok := cond.(And)
	require.True(t, ok)
	require.Len(t, and, 7)

	assert.Equal(t, In{Field: model.FieldImportance, Values: []any{"400"}}, and[2])
	assert.Equal(t, Or{
		Exists{Field: model.FieldGroup, Exists: false},
		In{Field: model.FieldGroup, Values: []any{"g1"}},
	}, and[3])
	assert.Equal(t, Exists{Field: model.FieldOwnPlatform, Exists: true}, and[4])
	assert.Equal(t, NonEmpty{Field: model.FieldCompletedOn, NonEmpty: true}, and[5])
	assert.Equal(t, Or{
		Match{Field: model.FieldName, Term: "dune"},
		Match{Field: model.FieldAuthors, Term: "dune"},
	}, and[6])
}

func TestFilterCondition_EmptyReferenceFilterIgnored(t *testing.T) {
	filter := &model.MediaItemFilter{Groups: &model.ReferenceFilter{}, Name: "   "}
	cond := FilterCondition("u1", "c1", filter, bookFields)
	assert.Len(t, cond.(And), 2)
}

func TestSearchCondition(t *testing.T) {
	cond := SearchCondition("u1", "herbert", nil, bookFields)
	assert.Equal(t, And{
		Eq{Field: model.FieldOwner, Value: "u1"},
		Or{
			Match{Field: model.FieldName, Term: "herbert"},
			Match{Field: model.FieldAuthors, Term: "herbert"},
		},
	}, cond)
}

func TestOrderingFor_DefaultsToName(t *testing.T) {
	order, err := OrderingFor(nil, Fields{})
	require.NoError(t, err)
	assert.Equal(t, Ordering{
		{Field: model.FieldName, Ascending: true},
		{Field: model.FieldID, Ascending: true},
	}, order)
}

func TestOrderingFor_GroupExpandsToOrderInGroup(t *testing.T) {
	order, err := OrderingFor([]model.SortBy{
		{Field: model.SortGroup, Ascending: false},
		{Field: model.SortAuthor, Ascending: true},
	}, bookFields)
	require.NoError(t, err)
	assert.Equal(t, Ordering{
		{Field: model.FieldGroup, Ascending: false},
		{Field: model.FieldOrderInGroup, Ascending: false},
		{Field: model.FieldAuthors, Ascending: true},
		{Field: model.FieldID, Ascending: true},
	}, order)
}

func TestOrderingFor_DuplicateKeysKeepFirst(t *testing.T) {
	order, err := OrderingFor([]model.SortBy{
		{Field: model.SortName, Ascending: false},
		{Field: model.SortName, Ascending: true},
	}, bookFields)
	require.NoError(t, err)
	assert.Equal(t, Ordering{
		{Field: model.FieldName, Ascending: false},
		{Field: model.FieldID, Ascending: true},
	}, order)
}

func TestOrderingFor_UnknownField(t *testing.T) {
	_, err := OrderingFor([]model.SortBy{{Field: model.SortDirector}}, bookFields)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSortField))
	assert.Contains(t, err.Error(), "DIRECTOR")
}
