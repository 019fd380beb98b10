// Package sample generates a syntactically valid XML instance from an
// xsd/graph.Graph, driven by a caller-supplied generation Policy. No pack
// example generates XML samples from a schema; the per-facet value rules
// here are grounded on facets.go's FacetValidator implementations (the
// same types this package reads enumeration/pattern/length/numeric
// constraints from), and regex-to-sample expansion reuses the same
// xsd-regex-shortcut conventions facets.go's convertXSDRegex applies, so
// pattern handling stays consistent with how the validator interprets
// XSD regex syntax.
package sample

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/freexmltoolkit/xmlkit"
	"github.com/freexmltoolkit/xmlkit/xsd/graph"
)

// EmitOptionalMode controls whether minOccurs=0 particles are emitted.
type EmitOptionalMode string

const (
	EmitAlways EmitOptionalMode = "always"
	EmitNever  EmitOptionalMode = "never"
	EmitRandom EmitOptionalMode = "random"
)

// Policy is the generation policy spec.md §4.2/§6 names: min/max
// repetitions for unbounded particles, whether optional particles are
// emitted, and a seed for deterministic pseudo-random choices (boolean
// values, enumeration picks, emit_optional=random).
type Policy struct {
	MinElements    int
	MaxElements    int
	EmitOptional   EmitOptionalMode
	Seed           int64
	Indent         int // spaces per level, default 2
	SchemaLocation string

	// DocLang, when set, emits the element's best-matching documentation
	// alternate (via PreferredDocumentation) as a leading comment, instead
	// of the primary annotation text.
	DocLang string
}

// DefaultPolicy mirrors the teacher's sane-zero-value config pattern
// (SchemaLoaderConfig): every field has a usable default.
func DefaultPolicy() Policy {
	return Policy{
		MinElements:  1,
		MaxElements:  1,
		EmitOptional: EmitAlways,
		Indent:       2,
	}
}

// Warning mirrors graph.Warning's shape for generation-time fallbacks:
// PatternTooComplex, NumericFacetContradiction.
type Warning struct {
	Kind    string
	XPath   string
	Message string
}

// Result is the generator's output: the XML text plus any warnings raised
// while falling back on unsupported facets.
type Result struct {
	XML      string
	Warnings []Warning
}

type generator struct {
	policy   Policy
	schema   *xsd.Schema
	g        *graph.Graph
	rand     *prng
	warnings []Warning
}

// Generate emits a sample XML document rooted at g.Roots[0] (or the root
// named by rootXPath, when non-empty).
func Generate(g *graph.Graph, schema *xsd.Schema, policy Policy, rootXPath string) (*Result, error) {
	if g == nil || len(g.Roots) == 0 {
		return nil, fmt.Errorf("graph has no root elements")
	}
	root := g.Roots[0]
	if rootXPath != "" {
		n, ok := g.ByXPath[rootXPath]
		if !ok {
			return nil, fmt.Errorf("no node at xpath %s", rootXPath)
		}
		root = n
	}

	if policy.MinElements <= 0 {
		policy.MinElements = 1
	}
	if policy.MaxElements < policy.MinElements {
		policy.MaxElements = policy.MinElements
	}
	if policy.Indent <= 0 {
		policy.Indent = 2
	}

	gen := &generator{
		policy: policy,
		schema: schema,
		g:      g,
		rand:   newPRNG(policy.Seed),
	}

	var buf strings.Builder
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	gen.writeElement(&buf, root, 0)

	return &Result{XML: buf.String(), Warnings: gen.warnings}, nil
}

func (g *generator) indent(n int) string {
	return strings.Repeat(" ", n*g.policy.Indent)
}

func (g *generator) warn(kind, xpath, message string) {
	g.warnings = append(g.warnings, Warning{Kind: kind, XPath: xpath, Message: message})
}

// writeElement renders one element occurrence: its attributes, text value
// or children.
func (g *generator) writeElement(buf *strings.Builder, node *graph.ElementNode, depth int) {
	if g.policy.DocLang != "" {
		if text := PreferredDocumentation(node.Doc, g.policy.DocLang); text != "" {
			buf.WriteString(g.indent(depth) + "<!-- " + escapeText(text) + " -->\n")
		}
	}

	open := "<" + node.Name.Local
	if attrs := g.renderAttributes(node); attrs != "" {
		open += " " + attrs
	}
	if g.policy.SchemaLocation != "" && depth == 0 {
		open += fmt.Sprintf(` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:schemaLocation="%s"`, g.policy.SchemaLocation)
	}

	if node.Recursive {
		// The graph builder already stopped descent at this branch; emit a
		// single closed tag and go no further (§4.2 "emit exactly minOccurs
		// repetitions and stop").
		buf.WriteString(g.indent(depth) + open + "/>\n")
		return
	}

	if len(node.Children) == 0 {
		value, err := g.scalarValue(node)
		if err != nil {
			g.warn("ValueGenerationFailed", node.XPath, err.Error())
		}
		if value == "" {
			buf.WriteString(g.indent(depth) + open + "/>\n")
			return
		}
		buf.WriteString(g.indent(depth) + open + ">" + escapeText(value) + "</" + node.Name.Local + ">\n")
		return
	}

	var children strings.Builder
	g.writeChildren(&children, node, depth+1)
	if children.Len() == 0 {
		// Every child was optional and skipped by policy.
		buf.WriteString(g.indent(depth) + open + "/>\n")
		return
	}
	buf.WriteString(g.indent(depth) + open + ">\n")
	buf.WriteString(children.String())
	buf.WriteString(g.indent(depth) + "</" + node.Name.Local + ">\n")
}

// writeChildren emits node's children per §4.2's per-element rules: emit
// max(minOccurs, min_elements) copies, capped at min(maxOccurs,
// max_elements); xs:all groups are already flattened by the graph builder
// into document order and are emitted exactly once each, since every
// surviving ElementNode here already carries its own minOccurs/maxOccurs.
func (g *generator) writeChildren(buf *strings.Builder, node *graph.ElementNode, depth int) {
	for _, idx := range node.Children {
		child := g.g.Node(idx)

		if child.MinOccurs == 0 && !g.emitOptional() {
			continue
		}

		reps := child.MinOccurs
		if reps < g.policy.MinElements {
			reps = g.policy.MinElements
		}
		if reps == 0 {
			reps = 1
		}
		cap := child.MaxOccurs
		if cap == graph.Unbounded || cap > g.policy.MaxElements {
			cap = g.policy.MaxElements
		}
		if cap < reps {
			cap = reps
		}
		if child.MinOccurs == 0 && reps > cap {
			reps = cap
		}

		for i := 0; i < reps; i++ {
			g.writeElement(buf, child, depth)
		}
	}
}

func (g *generator) emitOptional() bool {
	switch g.policy.EmitOptional {
	case EmitAlways:
		return true
	case EmitNever:
		return false
	case EmitRandom:
		return g.rand.bool()
	default:
		return true
	}
}

// renderAttributes emits every required attribute and, per policy,
// optional ones (§4.2: "use=required always, use=optional per policy").
func (g *generator) renderAttributes(node *graph.ElementNode) string {
	var parts []string
	for _, a := range node.Attributes {
		if a.Use == xsd.ProhibitedUse {
			continue
		}
		if a.Use != xsd.RequiredUse && !g.emitOptional() {
			continue
		}
		value := a.Fixed
		if value == "" {
			value = a.Default
		}
		if value == "" {
			v, err := g.valueForType(a.Type, a.Name.Local)
			if err != nil {
				g.warn("ValueGenerationFailed", node.XPath+"/@"+a.Name.Local, err.Error())
			}
			value = v
		}
		parts = append(parts, fmt.Sprintf(`%s="%s"`, a.Name.Local, escapeAttr(value)))
	}
	return strings.Join(parts, " ")
}

// scalarValue produces the node's text content, honoring Fixed/Default
// before falling back to type-driven generation.
func (g *generator) scalarValue(node *graph.ElementNode) (string, error) {
	if st, ok := node.ResolvedType.(*xsd.SimpleType); ok {
		return g.valueForSimpleType(st, node.XPath)
	}
	return g.valueForType(node.ResolvedType, node.XPath)
}

func (g *generator) valueForType(t xsd.Type, xpath string) (string, error) {
	if t == nil {
		return "", nil
	}
	if st, ok := t.(*xsd.SimpleType); ok {
		return g.valueForSimpleType(st, xpath)
	}
	// Complex type used as an attribute/text type shouldn't happen in a
	// well-formed schema; fall back to the builtin default for its name.
	return builtinDefault(t.Name().Local, g.rand), nil
}

func (g *generator) valueForSimpleType(st *xsd.SimpleType, xpath string) (string, error) {
	if st == nil {
		return "", nil
	}

	if st.List != nil {
		itemType := g.schema.TypeDefs[st.List.ItemType]
		item, _ := g.valueForType(itemType, xpath)
		if item == "" {
			item = builtinDefault(st.List.ItemType.Local, g.rand)
		}
		items := make([]string, g.policy.MinElements)
		for i := range items {
			items[i] = item
		}
		return strings.Join(items, " "), nil
	}

	if st.Union != nil && len(st.Union.MemberTypes) > 0 {
		member := g.schema.TypeDefs[st.Union.MemberTypes[0]]
		return g.valueForType(member, xpath)
	}

	if st.Restriction == nil {
		return builtinDefault(st.Base.Local, g.rand), nil
	}

	r := st.Restriction
	if enums := xsd.CombineEnumerations(r.Facets); len(enums) > 0 {
		return g.rand.pick(enums), nil
	}

	baseName := r.Base.Local
	if baseName == "" {
		baseName = st.Base.Local
	}

	if pattern := findPatternFacet(r.Facets); pattern != "" {
		value, ok := expandPattern(pattern)
		if !ok {
			g.warn("PatternTooComplex", xpath, fmt.Sprintf("pattern %q has unsupported constructs; using literal", pattern))
			return pattern, nil
		}
		return value, nil
	}

	if isNumericFacetType(baseName) {
		return g.numericValue(baseName, r.Facets, xpath)
	}

	value := builtinDefault(baseName, g.rand)
	value = clipToLength(value, r.Facets)
	return value, nil
}

func findPatternFacet(facets []xsd.FacetValidator) string {
	for _, f := range facets {
		if pf, ok := f.(*xsd.PatternFacet); ok {
			return pf.Pattern
		}
	}
	return ""
}

func isNumericFacetType(name string) bool {
	switch name {
	case "decimal", "integer", "int", "long", "short", "byte",
		"nonNegativeInteger", "nonPositiveInteger", "negativeInteger", "positiveInteger",
		"unsignedLong", "unsignedInt", "unsignedShort", "unsignedByte",
		"float", "double":
		return true
	}
	return false
}

// numericValue honors minInclusive/maxInclusive/minExclusive/maxExclusive
// and fractionDigits, falling back to the base default with a
// NumericFacetContradiction warning when the bounds make no sense.
func (g *generator) numericValue(baseName string, facets []xsd.FacetValidator, xpath string) (string, error) {
	var minV, maxV *int64
	var fractionDigits int
	for _, f := range facets {
		switch fv := f.(type) {
		case *xsd.MinInclusiveFacet:
			if v, err := strconv.ParseInt(fv.Value, 10, 64); err == nil {
				minV = &v
			}
		case *xsd.MinExclusiveFacet:
			if v, err := strconv.ParseInt(fv.Value, 10, 64); err == nil {
				v++
				minV = &v
			}
		case *xsd.MaxInclusiveFacet:
			if v, err := strconv.ParseInt(fv.Value, 10, 64); err == nil {
				maxV = &v
			}
		case *xsd.MaxExclusiveFacet:
			if v, err := strconv.ParseInt(fv.Value, 10, 64); err == nil {
				v--
				maxV = &v
			}
		case *xsd.FractionDigitsFacet:
			fractionDigits = fv.Value
		}
	}

	var value int64
	switch {
	case minV != nil && maxV != nil:
		if *minV > *maxV {
			g.warn("NumericFacetContradiction", xpath, "minInclusive exceeds maxInclusive")
			value = 0
		} else {
			value = *minV
		}
	case minV != nil:
		value = *minV
	case maxV != nil:
		value = *maxV
	default:
		value = 0
	}

	if baseName == "decimal" || baseName == "float" || baseName == "double" {
		if fractionDigits > 0 {
			return fmt.Sprintf("%d.%0*d", value, fractionDigits, 0), nil
		}
		return fmt.Sprintf("%d.00", value), nil
	}
	return strconv.FormatInt(value, 10), nil
}

func clipToLength(value string, facets []xsd.FacetValidator) string {
	var exact, min, max int = -1, -1, -1
	for _, f := range facets {
		switch fv := f.(type) {
		case *xsd.LengthFacet:
			exact = fv.Value
		case *xsd.MinLengthFacet:
			min = fv.Value
		case *xsd.MaxLengthFacet:
			max = fv.Value
		}
	}
	runes := []rune(value)
	if exact >= 0 {
		return padOrTrim(runes, exact)
	}
	if max >= 0 && len(runes) > max {
		runes = runes[:max]
	}
	if min >= 0 && len(runes) < min {
		return padOrTrim(runes, min)
	}
	return string(runes)
}

func padOrTrim(runes []rune, n int) string {
	if len(runes) >= n {
		return string(runes[:n])
	}
	if len(runes) == 0 {
		runes = []rune("x")
	}
	padded := make([]rune, 0, n)
	for len(padded) < n {
		padded = append(padded, runes...)
	}
	return string(padded[:n])
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func escapeAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
