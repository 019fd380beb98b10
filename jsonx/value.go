package jsonx

// Kind discriminates a parsed Value's shape.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Member is one key/value pair of an object, kept in source order — the
// representation format()/execute_jsonpath's "preserves key order"
// contract depends on, which a plain map[string]interface{} cannot give.
type Member struct {
	Key   string
	Value Value
}

// Value is an order-preserving JSON value tree. Numbers keep their
// original literal text (Raw) rather than a float64, so re-formatting
// never rewrites "1.50" to "1.5" or loses integer precision beyond
// float64's range.
type Value struct {
	Kind    Kind
	Bool    bool
	Raw     string // number literal or unescaped string content
	Members []Member
	Items   []Value
}

// Native converts a Value into plain Go data (map[string]interface{},
// []interface{}, string, float64, bool, nil) for consumers that need the
// standard interface{} shape — jsonschema.Validate and jsonpath.Get both
// expect it.
func (v Value) Native() interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindNumber:
		return parseNumber(v.Raw)
	case KindString:
		return v.Raw
	case KindArray:
		out := make([]interface{}, len(v.Items))
		for i, it := range v.Items {
			out[i] = it.Native()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.Members))
		for _, m := range v.Members {
			out[m.Key] = m.Value.Native()
		}
		return out
	default:
		return nil
	}
}
