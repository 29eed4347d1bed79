package postgres

import (
	"testing"

	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/query"
	"github.com/stretchr/testify/assert"
)

func TestToWhere(t *testing.T) {
	w := toWhere(query.And{
		query.Eq{Field: model.FieldOwner, Value: "alice"},
		query.Or{
			query.Exists{Field: model.FieldGroup, Exists: false},
			query.In{Field: model.FieldGroup, Values: []any{"g1"}},
		},
		query.Match{Field: model.FieldDirectors, Term: "scott"},
	})
	assert.Equal(t, "((doc @> ?::jsonb OR doc @> ?::jsonb) AND "+
		"(NOT coalesce(doc->'group' NOT IN ('null'::jsonb, '\"\"'::jsonb), false) OR "+
		"((doc @> ?::jsonb OR doc @> ?::jsonb))) AND "+
		"EXISTS (SELECT 1 FROM jsonb_array_elements(CASE WHEN jsonb_typeof(doc->'directors') = 'array' THEN doc->'directors' ELSE jsonb_build_array(doc->'directors') END) e "+
		"WHERE jsonb_typeof(e) = 'string' AND strpos(lower(e #>> '{}'), lower(?)) > 0))", w.sql)
	assert.Equal(t, []any{
		`{"owner":"alice"}`, `{"owner":["alice"]}`,
		`{"group":"g1"}`, `{"group":["g1"]}`,
		"scott",
	}, w.args)
}

func TestToWhereEdgeCases(t *testing.T) {
	assert.Equal(t, "TRUE", toWhere(nil).sql)
	assert.Equal(t, "TRUE", toWhere(query.And{}).sql)
	assert.Equal(t, "FALSE", toWhere(query.Or{}).sql)
	assert.Equal(t, "FALSE", toWhere(query.In{Field: model.FieldGroup}).sql)
	assert.Equal(t, "(doc->'group' IS NULL OR doc->'group' = 'null'::jsonb)",
		toWhere(query.Eq{Field: model.FieldGroup, Value: nil}).sql)
	assert.Equal(t, "NOT (CASE WHEN jsonb_typeof(doc->'completedOn') = 'array' THEN jsonb_array_length(doc->'completedOn') > 0 ELSE false END)",
		toWhere(query.NonEmpty{Field: model.FieldCompletedOn, NonEmpty: false}).sql)

	imp := toWhere(query.Eq{Field: model.FieldImportance, Value: model.ImportanceHigh})
	assert.Equal(t, []any{`{"importance":"400"}`, `{"importance":["400"]}`}, imp.args)

	assert.Panics(t, func() { toWhere(query.Eq{Field: "name'; DROP TABLE books; --", Value: "x"}) })
}

func TestToOrderBy(t *testing.T) {
	assert.Empty(t, toOrderBy(nil))
	got := toOrderBy(query.Ordering{
		{Field: model.FieldName, Ascending: false},
		{Field: model.FieldID, Ascending: true},
	})
	assert.Equal(t, " ORDER BY "+
		"(CASE WHEN jsonb_typeof(doc->'name') = 'array' THEN (SELECT e FROM jsonb_array_elements(doc->'name') e ORDER BY e DESC LIMIT 1) ELSE doc->'name' END) DESC NULLS LAST, "+
		"(CASE WHEN jsonb_typeof(doc->'_id') = 'array' THEN (SELECT e FROM jsonb_array_elements(doc->'_id') e ORDER BY e ASC LIMIT 1) ELSE doc->'_id' END) ASC NULLS FIRST", got)
}
