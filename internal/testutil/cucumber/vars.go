package cucumber

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/itchyny/gojq"
)

// Expand replaces every ${ref} in text. A ref is either "response" followed
// by an optional jq path into the current user's last response body, or a
// variable name followed by an optional jq path into its value:
//
//	${categoryId}
//	${response._id}
//	${book.authors[0]}
//	${response.data | length}
func (s *TestScenario) Expand(text string) (string, error) {
	var errs []error
	out := os.Expand(text, func(ref string) string {
		v, err := s.Resolve(ref)
		if err != nil {
			errs = append(errs, err)
			return ""
		}
		return stringify(v)
	})
	return out, errors.Join(errs...)
}

// Resolve evaluates one ${ref} without the braces.
func (s *TestScenario) Resolve(ref string) (any, error) {
	ref = strings.TrimSpace(ref)
	root, path := splitRef(ref)

	var doc any
	if root == "response" {
		resp := s.LastResponse()
		if resp == nil {
			return nil, fmt.Errorf("${%s}: no request sent yet as %q", ref, s.CurrentUser)
		}
		var err error
		if doc, err = resp.JSON(); err != nil {
			return nil, err
		}
	} else {
		v, ok := s.Variables[root]
		if !ok {
			return nil, fmt.Errorf("variable ${%s} is not defined", root)
		}
		doc = v
	}
	if path == "" {
		return doc, nil
	}
	return selectFirst(doc, "."+path)
}

// splitRef splits "book.authors[0]" into "book" and "authors[0]".
func splitRef(ref string) (string, string) {
	end := strings.IndexAny(ref, ".[| ")
	if end < 0 {
		return ref, ""
	}
	rest := strings.TrimPrefix(ref[end:], ".")
	return ref[:end], rest
}

// selectFirst runs a jq selector over doc and returns its first result.
func selectFirst(doc any, selector string) (any, error) {
	q, err := gojq.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("selector %q: %w", selector, err)
	}
	v, ok := q.Run(doc).Next()
	if !ok {
		return nil, fmt.Errorf("selector %q matched nothing", selector)
	}
	if err, isErr := v.(error); isErr {
		return nil, fmt.Errorf("selector %q: %w", selector, err)
	}
	return v, nil
}

// stringify renders a selected value the way it is written in feature files:
// strings bare, whole numbers without a fraction, null as "null" and
// everything else as compact JSON.
func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
