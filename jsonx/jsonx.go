// Package jsonx is the non-GUI JSON sub-engine: parse, format, minify,
// JSONPath-query, and JSON-Schema-validate JSON, JSONC, and JSON5 text
// (spec.md §4.7).
//
// No pack example implements a JSON engine; PaesslerAG/jsonpath and
// santhosh-tekuri/jsonschema/v5 are the domain stack's named ecosystem
// dependencies (see DESIGN.md) for query execution and schema validation,
// used the way the teacher uses its own single-purpose dependencies
// (golang/groupcache for the Schematron XSLT cache, beevik/etree for DOM
// edits) — one library per concern, wired directly rather than wrapped in
// an abstraction layer.
package jsonx

import (
	"fmt"
)

// Format names the JSON dialect detect_format recognizes.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatJSON5 Format = "json5"
)

// Position locates an error in source text, matching the line+column shape
// internal/diagnostic.Position uses for the XML/XSD engines.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Error is one parse or validation problem, per spec.md §4.7's
// validate_wellformed/validate_against_schema contracts.
type Error struct {
	Message  string
	Position Position
	Path     string // JSON Pointer to the offending value, when known
}

func (e Error) String() string {
	if e.Path != "" {
		return fmt.Sprintf("%d:%d: %s: %s", e.Position.Line, e.Position.Column, e.Path, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Position.Line, e.Position.Column, e.Message)
}

// ParseError wraps a single tokenizer failure with the stage name, so
// callers can distinguish a tolerant-dialect rewrite failure from a
// strict-JSON structural error.
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string { return fmt.Sprintf("jsonx: %s: %v", e.Stage, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }
