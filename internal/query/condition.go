// Package query holds store-agnostic conditions and orderings over stored
// documents. The store plugins translate them into their native form.
package query

// Condition is a predicate over a stored document.
type Condition interface {
	isCondition()
}

// And matches documents matching every condition.
type And []Condition

// Or matches documents matching at least one condition.
type Or []Condition

// Eq matches documents whose field equals Value. Array fields match when any
// element equals Value.
type Eq struct {
	Field string
	Value any
}

// EqFold is Eq with case-insensitive string comparison.
type EqFold struct {
	Field string
	Value string
}

// In matches documents whose field equals one of Values.
type In struct {
	Field  string
	Values []any
}

// Exists matches documents where the field is set (Exists true) or is missing,
// null or empty string (Exists false).
type Exists struct {
	Field  string
	Exists bool
}

// NonEmpty matches documents whose array field has at least one element
// (NonEmpty true) or none (NonEmpty false).
type NonEmpty struct {
	Field    string
	NonEmpty bool
}

// Match is a case-insensitive substring match. Array fields match when any
// element contains Term.
type Match struct {
	Field string
	Term  string
}

func (And) isCondition()      {}
func (Or) isCondition()       {}
func (Eq) isCondition()       {}
func (EqFold) isCondition()   {}
func (In) isCondition()       {}
func (Exists) isCondition()   {}
func (NonEmpty) isCondition() {}
func (Match) isCondition()    {}

// All ANDs the non-nil conditions. It returns nil when there are none.
func All(conds ...Condition) Condition {
	kept := compact(conds)
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return And(kept)
}

// Any ORs the non-nil conditions. It returns nil when there are none.
func Any(conds ...Condition) Condition {
	kept := compact(conds)
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return Or(kept)
}

func compact(conds []Condition) []Condition {
	kept := make([]Condition, 0, len(conds))
	for _, c := range conds {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return kept
}

// Sort is one ordering key over a document field.
type Sort struct {
	Field     string
	Ascending bool
}

// Ordering is a multi-key sort. Earlier keys take precedence.
type Ordering []Sort
