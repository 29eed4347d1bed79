package memory

import (
	"cmp"
	"reflect"
	"strings"
	"time"

	"github.com/chirino/media-tracker/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// matches evaluates cond against a decoded document the way the mongo store's
// translated filter would.
func matches(doc bson.M, cond query.Condition) bool {
	switch c := cond.(type) {
	case nil:
		return true
	case query.And:
		for _, sub := range c {
			if !matches(doc, sub) {
				return false
			}
		}
		return true
	case query.Or:
		for _, sub := range c {
			if matches(doc, sub) {
				return true
			}
		}
		return false
	case query.Eq:
		want := normalize(c.Value)
		return anyElement(doc[c.Field], func(v any) bool { return equal(v, want) })
	case query.EqFold:
		return anyElement(doc[c.Field], func(v any) bool {
			s, ok := v.(string)
			return ok && strings.EqualFold(s, c.Value)
		})
	case query.In:
		return anyElement(doc[c.Field], func(v any) bool {
			for _, want := range c.Values {
				if equal(v, normalize(want)) {
					return true
				}
			}
			return false
		})
	case query.Exists:
		v, ok := doc[c.Field]
		set := ok && v != nil && v != ""
		return set == c.Exists
	case query.NonEmpty:
		arr, _ := doc[c.Field].(bson.A)
		return (len(arr) > 0) == c.NonEmpty
	case query.Match:
		term := strings.ToLower(c.Term)
		return anyElement(doc[c.Field], func(v any) bool {
			s, ok := v.(string)
			return ok && strings.Contains(strings.ToLower(s), term)
		})
	}
	return false
}

// anyElement applies pred to a scalar, or to every element of an array.
func anyElement(v any, pred func(any) bool) bool {
	if arr, ok := v.(bson.A); ok {
		for _, e := range arr {
			if pred(normalize(e)) {
				return true
			}
		}
		return false
	}
	return pred(normalize(v))
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case bson.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	}
	return v
}

func equal(a, b any) bool {
	a, b = normalize(a), normalize(b)
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}

type emptyArray struct{}

// sortValue picks the value an array contributes to a sort: its smallest
// element ascending, its largest descending.
func sortValue(v any, ascending bool) any {
	arr, ok := v.(bson.A)
	if !ok {
		return normalize(v)
	}
	if len(arr) == 0 {
		return emptyArray{}
	}
	best := normalize(arr[0])
	for _, e := range arr[1:] {
		n := normalize(e)
		c := compareValues(n, best)
		if (ascending && c < 0) || (!ascending && c > 0) {
			best = n
		}
	}
	return best
}

// typeRank follows the BSON comparison order of types.
func typeRank(v any) int {
	switch v.(type) {
	case emptyArray:
		return -1
	case nil:
		return 0
	case float64:
		return 1
	case string:
		return 2
	case bson.D, bson.M:
		return 3
	case bool:
		return 5
	case time.Time:
		return 6
	}
	return 4
}

func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch x := a.(type) {
	case float64:
		return cmp.Compare(x, b.(float64))
	case string:
		return strings.Compare(x, b.(string))
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case time.Time:
		return x.Compare(b.(time.Time))
	}
	return 0
}

func compareDocs(a, b bson.M, order query.Ordering) int {
	for _, s := range order {
		c := compareValues(sortValue(a[s.Field], s.Ascending), sortValue(b[s.Field], s.Ascending))
		if c == 0 {
			continue
		}
		if !s.Ascending {
			c = -c
		}
		return c
	}
	return 0
}
