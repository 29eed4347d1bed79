package mongo

import (
	"fmt"
	"regexp"

	"github.com/chirino/media-tracker/internal/query"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// toFilter translates a condition into a mongo query document.
func toFilter(cond query.Condition) bson.M {
	switch c := cond.(type) {
	case nil:
		return bson.M{}
	case query.And:
		if len(c) == 0 {
			return bson.M{}
		}
		return bson.M{"$and": toFilters(c)}
	case query.Or:
		if len(c) == 0 {
			return bson.M{"_id": bson.M{"$in": bson.A{}}}
		}
		return bson.M{"$or": toFilters(c)}
	case query.Eq:
		return bson.M{c.Field: c.Value}
	case query.EqFold:
		return bson.M{c.Field: bson.M{"$regex": "^" + regexp.QuoteMeta(c.Value) + "$", "$options": "i"}}
	case query.In:
		return bson.M{c.Field: bson.M{"$in": c.Values}}
	case query.Exists:
		if c.Exists {
			return bson.M{c.Field: bson.M{"$exists": true, "$nin": bson.A{nil, ""}}}
		}
		// $in with null also matches missing fields.
		return bson.M{c.Field: bson.M{"$in": bson.A{nil, ""}}}
	case query.NonEmpty:
		return bson.M{c.Field + ".0": bson.M{"$exists": c.NonEmpty}}
	case query.Match:
		return bson.M{c.Field: bson.M{"$regex": regexp.QuoteMeta(c.Term), "$options": "i"}}
	}
	panic(fmt.Sprintf("mongo: unsupported condition %T", cond))
}

func toFilters(conds []query.Condition) bson.A {
	out := make(bson.A, 0, len(conds))
	for _, c := range conds {
		out = append(out, toFilter(c))
	}
	return out
}

func toSort(order query.Ordering) bson.D {
	sort := make(bson.D, 0, len(order))
	for _, s := range order {
		dir := -1
		if s.Ascending {
			dir = 1
		}
		sort = append(sort, bson.E{Key: s.Field, Value: dir})
	}
	return sort
}
