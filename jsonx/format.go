package jsonx

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Format implements spec.md §4.7's format(text, indent) contract: parse
// text (tolerating JSONC/JSON5), then re-serialize as strict JSON.
// indent=0 produces a minified single line; any other value is spaces per
// nesting level. Key order is preserved from the input.
func Format(text string, indent int) (string, error) {
	v, _, err := Parse(text)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	writeValue(&b, v, indent, 0)
	return b.String(), nil
}

func writeValue(b *strings.Builder, v Value, indent, depth int) {
	switch v.Kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindNumber:
		if json.Valid([]byte(v.Raw)) {
			b.WriteString(v.Raw)
		} else {
			// JSON5-only literals (hex, leading '+', bare leading/trailing dot)
			b.WriteString(strconv.FormatFloat(parseNumber(strings.TrimPrefix(v.Raw, "+")), 'g', -1, 64))
		}
	case KindString:
		writeQuoted(b, v.Raw)
	case KindArray:
		writeArray(b, v, indent, depth)
	case KindObject:
		writeObject(b, v, indent, depth)
	}
}

func writeArray(b *strings.Builder, v Value, indent, depth int) {
	if len(v.Items) == 0 {
		b.WriteString("[]")
		return
	}
	b.WriteByte('[')
	for i, item := range v.Items {
		if i > 0 {
			b.WriteByte(',')
		}
		writeNewlineIndent(b, indent, depth+1)
		writeValue(b, item, indent, depth+1)
	}
	writeNewlineIndent(b, indent, depth)
	b.WriteByte(']')
}

func writeObject(b *strings.Builder, v Value, indent, depth int) {
	if len(v.Members) == 0 {
		b.WriteString("{}")
		return
	}
	b.WriteByte('{')
	for i, m := range v.Members {
		if i > 0 {
			b.WriteByte(',')
		}
		writeNewlineIndent(b, indent, depth+1)
		writeQuoted(b, m.Key)
		b.WriteByte(':')
		if indent > 0 {
			b.WriteByte(' ')
		}
		writeValue(b, m.Value, indent, depth+1)
	}
	writeNewlineIndent(b, indent, depth)
	b.WriteByte('}')
}

func writeNewlineIndent(b *strings.Builder, indent, depth int) {
	if indent <= 0 {
		return
	}
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", indent*depth))
}

// writeQuoted reuses encoding/json's string-escaping rules (the same
// backslash/unicode escapes §4.7's canonical serialization requires)
// rather than reimplementing RFC 8259 string quoting by hand.
func writeQuoted(b *strings.Builder, s string) {
	enc, _ := json.Marshal(s)
	b.Write(enc)
}

// SortKeysForDisplay returns a copy of v with every object's members
// sorted by key, for callers that want a stable diff-friendly rendering
// instead of source order (format() itself always preserves source
// order, per spec.md §4.7).
func SortKeysForDisplay(v Value) Value {
	switch v.Kind {
	case KindObject:
		members := make([]Member, len(v.Members))
		copy(members, v.Members)
		sort.Slice(members, func(i, j int) bool { return members[i].Key < members[j].Key })
		for i := range members {
			members[i].Value = SortKeysForDisplay(members[i].Value)
		}
		return Value{Kind: KindObject, Members: members}
	case KindArray:
		items := make([]Value, len(v.Items))
		for i, it := range v.Items {
			items[i] = SortKeysForDisplay(it)
		}
		return Value{Kind: KindArray, Items: items}
	default:
		return v
	}
}
