package postgres

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chirino/media-tracker/internal/query"
	"github.com/goccy/go-json"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// clause is a SQL fragment with its positional (?) arguments.
type clause struct {
	sql  string
	args []any
}

// field returns the JSONB expression selecting a top-level document field.
// Field names come from code, never from requests.
func field(name string) string {
	if !fieldName.MatchString(name) {
		panic(fmt.Sprintf("postgres: invalid field name %q", name))
	}
	return "doc->'" + name + "'"
}

// elements expands a field into its array elements, or a single-element set
// for scalars.
func elements(name string) string {
	f := field(name)
	return "jsonb_array_elements(CASE WHEN jsonb_typeof(" + f + ") = 'array' THEN " + f + " ELSE jsonb_build_array(" + f + ") END)"
}

// toWhere translates a condition into a SQL predicate over the doc column.
func toWhere(cond query.Condition) clause {
	switch c := cond.(type) {
	case nil:
		return clause{sql: "TRUE"}
	case query.And:
		if len(c) == 0 {
			return clause{sql: "TRUE"}
		}
		return join(c, " AND ")
	case query.Or:
		if len(c) == 0 {
			return clause{sql: "FALSE"}
		}
		return join(c, " OR ")
	case query.Eq:
		return eq(c.Field, c.Value)
	case query.EqFold:
		return clause{
			sql:  "EXISTS (SELECT 1 FROM " + elements(c.Field) + " e WHERE jsonb_typeof(e) = 'string' AND lower(e #>> '{}') = lower(?))",
			args: []any{c.Value},
		}
	case query.In:
		if len(c.Values) == 0 {
			return clause{sql: "FALSE"}
		}
		alts := make(query.Or, 0, len(c.Values))
		for _, v := range c.Values {
			alts = append(alts, query.Eq{Field: c.Field, Value: v})
		}
		return join(alts, " OR ")
	case query.Exists:
		set := "coalesce(" + field(c.Field) + " NOT IN ('null'::jsonb, '\"\"'::jsonb), false)"
		if c.Exists {
			return clause{sql: set}
		}
		return clause{sql: "NOT " + set}
	case query.NonEmpty:
		f := field(c.Field)
		nonEmpty := "(CASE WHEN jsonb_typeof(" + f + ") = 'array' THEN jsonb_array_length(" + f + ") > 0 ELSE false END)"
		if c.NonEmpty {
			return clause{sql: nonEmpty}
		}
		return clause{sql: "NOT " + nonEmpty}
	case query.Match:
		return clause{
			sql:  "EXISTS (SELECT 1 FROM " + elements(c.Field) + " e WHERE jsonb_typeof(e) = 'string' AND strpos(lower(e #>> '{}'), lower(?)) > 0)",
			args: []any{c.Term},
		}
	}
	panic(fmt.Sprintf("postgres: unsupported condition %T", cond))
}

// eq matches a scalar field equal to value, or an array field holding it.
// Both shapes are containment tests so the GIN index applies.
func eq(name string, value any) clause {
	if value == nil {
		f := field(name)
		return clause{sql: "(" + f + " IS NULL OR " + f + " = 'null'::jsonb)"}
	}
	_ = field(name)
	scalar, _ := json.Marshal(map[string]any{name: value})
	array, _ := json.Marshal(map[string]any{name: []any{value}})
	return clause{
		sql:  "(doc @> ?::jsonb OR doc @> ?::jsonb)",
		args: []any{string(scalar), string(array)},
	}
}

func join(conds []query.Condition, op string) clause {
	parts := make([]string, 0, len(conds))
	var args []any
	for _, c := range conds {
		w := toWhere(c)
		parts = append(parts, w.sql)
		args = append(args, w.args...)
	}
	return clause{sql: "(" + strings.Join(parts, op) + ")", args: args}
}

// toOrderBy translates an ordering. Arrays sort by their smallest element
// ascending and their largest descending; missing fields sort lowest.
func toOrderBy(order query.Ordering) string {
	if len(order) == 0 {
		return ""
	}
	keys := make([]string, 0, len(order))
	for _, s := range order {
		f := field(s.Field)
		dir, nulls := "ASC", "NULLS FIRST"
		if !s.Ascending {
			dir, nulls = "DESC", "NULLS LAST"
		}
		expr := "(CASE WHEN jsonb_typeof(" + f + ") = 'array' THEN (SELECT e FROM jsonb_array_elements(" + f + ") e ORDER BY e " + dir + " LIMIT 1) ELSE " + f + " END)"
		keys = append(keys, expr+" "+dir+" "+nulls)
	}
	return " ORDER BY " + strings.Join(keys, ", ")
}
