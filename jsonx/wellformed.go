package jsonx

// ValidateWellformed implements spec.md §4.7's
// validate_wellformed(text) -> [Error] contract. The hand-rolled scanner
// stops at the first structural problem (same as encoding/json), so this
// normally returns a single-element list; a clean parse returns nil.
func ValidateWellformed(text string) []Error {
	_, _, err := Parse(text)
	if err == nil {
		return nil
	}

	result := Error{Message: err.Error()}
	if pe, ok := err.(*ParseError); ok {
		if posErr, ok := pe.Err.(*positionedError); ok {
			result.Position = posErr.pos
			result.Message = posErr.msg
		}
	}
	return []Error{result}
}
