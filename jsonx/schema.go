package jsonx

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateAgainstSchema implements spec.md §4.7's
// validate_against_schema(text, schema_text) contract, supporting JSON
// Schema drafts 4 through 2020-12 via santhosh-tekuri/jsonschema/v5 (no
// pack example validates JSON Schema; this is the domain stack's named
// ecosystem dependency for the purpose, see DESIGN.md).
func ValidateAgainstSchema(text, schemaText string) ([]Error, error) {
	instance, _, err := Parse(text)
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	const resourceURL = "jsonx://schema.json"
	if err := compiler.AddResource(resourceURL, strings.NewReader(schemaText)); err != nil {
		return nil, &ParseError{Stage: "schema compile", Err: err}
	}
	schema, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, &ParseError{Stage: "schema compile", Err: err}
	}

	if err := schema.Validate(instance.Native()); err != nil {
		return schemaErrorsFrom(err), nil
	}
	return nil, nil
}

// schemaErrorsFrom flattens a jsonschema.ValidationError tree into the
// flat []Error list spec.md's contract names, keeping each leaf cause's
// instance location as Path.
func schemaErrorsFrom(err error) []Error {
	valErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Error{{Message: err.Error()}}
	}

	var out []Error
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			out = append(out, Error{
				Message: v.Message,
				Path:    v.InstanceLocation,
			})
			return
		}
		for _, cause := range v.Causes {
			walk(cause)
		}
	}
	walk(valErr)
	return out
}
