package cucumber

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pmezard/go-difflib/difflib"
)

// parseExpected decodes an expected JSON document from a feature file.
func parseExpected(text string) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("expected json is empty")
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("expected json is invalid: %w\n%s", err, text)
	}
	return v, nil
}

// equalJSON fails with a unified diff when actual and expected differ.
func equalJSON(actual, expected any) error {
	if reflect.DeepEqual(normalize(actual), expected) {
		return nil
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(indent(expected)),
		B:        difflib.SplitLines(indent(actual)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  2,
	})
	return fmt.Errorf("json mismatch:\n%s", diff)
}

// containsJSON checks that every member of expected is present in actual
// with the same value. Objects may carry extra keys; arrays must have the
// same length and are compared element by element.
func containsJSON(actual, expected any) error {
	var problems []string
	collectMismatches("$", normalize(actual), expected, &problems)
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("response does not contain the expected json:\n  %s\nactual:\n%s",
		strings.Join(problems, "\n  "), indent(actual))
}

func collectMismatches(at string, actual, expected any, problems *[]string) {
	switch want := expected.(type) {
	case map[string]any:
		got, ok := actual.(map[string]any)
		if !ok {
			*problems = append(*problems, fmt.Sprintf("%s: want an object, got %s", at, indent(actual)))
			return
		}
		keys := make([]string, 0, len(want))
		for k := range want {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			v, present := got[k]
			if !present {
				*problems = append(*problems, fmt.Sprintf("%s.%s: missing", at, k))
				continue
			}
			collectMismatches(at+"."+k, v, want[k], problems)
		}
	case []any:
		got, ok := actual.([]any)
		if !ok || len(got) != len(want) {
			*problems = append(*problems, fmt.Sprintf("%s: want %d elements, got %s", at, len(want), indent(actual)))
			return
		}
		for i := range want {
			collectMismatches(fmt.Sprintf("%s[%d]", at, i), got[i], want[i], problems)
		}
	default:
		if !reflect.DeepEqual(actual, expected) {
			*problems = append(*problems, fmt.Sprintf("%s: want %s, got %s", at, indent(expected), indent(actual)))
		}
	}
}

// normalize round-trips v through JSON so values produced by jq (which may
// hold ints) compare equal to decoded feature file values.
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func indent(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
