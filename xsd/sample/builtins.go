package sample

import "time"

// builtinDefault gives each atomic XSD built-in a default producer, per
// spec.md §4.2. Names are stripped of namespace prefix by the caller (the
// schema's own QName.Local), matching builtin_types.go's own lookup
// convention.
func builtinDefault(typeName string, r *prng) string {
	switch typeName {
	case "string", "normalizedString", "token", "language", "Name", "NCName",
		"NMTOKEN", "ID", "IDREF", "ENTITY":
		return "string"
	case "boolean":
		if r.bool() {
			return "true"
		}
		return "false"
	case "int", "integer", "long", "short", "byte",
		"nonNegativeInteger", "unsignedLong", "unsignedInt", "unsignedShort", "unsignedByte",
		"positiveInteger":
		return "0"
	case "nonPositiveInteger", "negativeInteger":
		return "0"
	case "decimal", "float", "double":
		return "0.00"
	case "date":
		return time.Now().UTC().Format("2006-01-02")
	case "dateTime":
		return time.Now().UTC().Format("2006-01-02T15:04:05Z")
	case "time":
		return time.Now().UTC().Format("15:04:05Z")
	case "gYear":
		return time.Now().UTC().Format("2006")
	case "gYearMonth":
		return time.Now().UTC().Format("2006-01")
	case "gMonth":
		return "--01"
	case "gDay":
		return "---01"
	case "gMonthDay":
		return "--01-01"
	case "duration":
		return "P0D"
	case "anyURI":
		return "urn:example"
	case "QName":
		return "ex:value"
	case "hexBinary":
		return "00"
	case "base64Binary":
		return "AA=="
	default:
		return "string"
	}
}
