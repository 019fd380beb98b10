package jsonx

import (
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
)

// ExecuteJSONPath implements spec.md §4.7's
// execute_jsonpath(text, query) -> string contract: a single match
// serializes as its own canonical JSON form, multiple matches serialize
// as a JSON array, grounded on PaesslerAG/jsonpath (the domain stack's
// named ecosystem dependency for JSONPath, see DESIGN.md; no pack example
// executes JSONPath).
func ExecuteJSONPath(text, query string) (string, error) {
	v, _, err := Parse(text)
	if err != nil {
		return "", err
	}

	result, err := jsonpath.Get(query, v.Native())
	if err != nil {
		return "", &ParseError{Stage: "jsonpath", Err: fmt.Errorf("%s: %w", query, err)}
	}

	matches, multi := result.([]interface{})
	if !multi {
		return canonicalJSON(result)
	}
	return canonicalJSON(matches)
}

// canonicalJSON re-serializes a Native()-shaped value through
// encoding/json, which is sufficient here because query results no longer
// need to preserve JSON5/JSONC source formatting or object key order
// beyond what map iteration's sorted-key marshaling gives.
func canonicalJSON(v interface{}) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", &ParseError{Stage: "jsonpath encode", Err: err}
	}
	return string(out), nil
}
