// Package graph flattens a parsed xsd.Schema into a traversable element
// graph keyed by XPath. The teacher stops at TypeRegistry plus element
// declarations; it never needs to walk recursive type references into a
// flat tree, so this package is new, grounded on the schema's own
// visited-stack cycle detection (resolveParticlesWithVisited) and on
// droyo-go-xml's flatten/de-reference approach to schema trees.
package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/freexmltoolkit/xmlkit"
)

// Unbounded is the maxOccurs sentinel for "unbounded", matching the
// convention xsd.ElementDecl already uses for MaxOcc.
const Unbounded = -1

// DefaultMaxDepth is MAX_ALLOWED_DEPTH: the recursion bound a build applies
// when BuildOptions.MaxDepth is zero.
const DefaultMaxDepth = 99

// Documentation folded onto a node: primary text plus language alternates.
type Documentation = xsd.Documentation

// ElementNode is one flattened graph node. Nodes live in a per-Graph arena
// (Graph.Nodes) and refer to each other by index, not by pointer, so that
// recursive schemas never require cyclic Go references.
type ElementNode struct {
	Index       int
	ParentIndex int // -1 for a root node
	Name        xsd.QName
	XPath       string

	DeclaredType xsd.QName // zero value if the element used an inline/anonymous type
	ResolvedType xsd.Type

	MinOccurs int
	MaxOccurs int // Unbounded sentinel, never a finite placeholder

	Children   []int
	Attributes []*xsd.AttributeDecl
	Doc        Documentation

	Recursive       bool
	RecursionTarget string // XPath of the ancestor whose type closed the cycle

	// SourceLine is a best-effort document-order position, not a true
	// byte/line offset: go-xmldom exposes no position API in the teacher's
	// usage, so this counts elements in the order the parser visited them.
	SourceLine int

	example exampleCache
}

// exampleCache lazily holds a sample value computed by xsd/sample, cached
// the same way cache.go caches a compiled Schema: compute once, read many.
type exampleCache struct {
	once sync.Once
	val  string
	err  error
}

// Example returns the node's cached sample value, computing it via fn the
// first time it is requested. xsd/sample is the only caller: graph cannot
// import it without a cycle, so the cache itself lives here and the
// producer function is supplied by the caller.
func (n *ElementNode) Example(fn func(*ElementNode) (string, error)) (string, error) {
	n.example.once.Do(func() {
		n.example.val, n.example.err = fn(n)
	})
	return n.example.val, n.example.err
}

// Warning is a non-fatal build-time problem: depth exceeded, an
// unresolvable wildcard, or similar. Warnings never stop a build.
type Warning struct {
	Kind    string
	XPath   string
	Message string
}

// UnresolvedTypeError reports a QName that never resolved to a
// TypeRegistry entry or atomic built-in.
type UnresolvedTypeError struct {
	QName xsd.QName
	XPath string
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("unresolved type %s at %s", e.QName, e.XPath)
}

// Graph is the flattened output of Build: an arena of ElementNodes keyed
// by XPath, plus the roots the build started from.
type Graph struct {
	Schema        *xsd.Schema
	SchemaVersion int

	Nodes   []*ElementNode
	ByXPath map[string]*ElementNode
	Roots   []*ElementNode

	Warnings []Warning
}

// Node looks up an arena entry by index.
func (g *Graph) Node(i int) *ElementNode {
	return g.Nodes[i]
}

// BuildOptions configures Build. Zero value is valid: MaxDepth defaults to
// DefaultMaxDepth and every global element becomes a root.
type BuildOptions struct {
	MaxDepth int

	// RootElement restricts the build to a single global element's local
	// name, matching spec's "optional starting element name".
	RootElement string

	// Cancel is checked at each particle-descent boundary, per the
	// engine's "blocking operations accept a Cancel token" contract.
	Cancel <-chan struct{}
}

// Cancelled is returned by Build when opts.Cancel fires mid-build.
var Cancelled = fmt.Errorf("graph build cancelled")

type builder struct {
	schema   *xsd.Schema
	opts     BuildOptions
	maxDepth int
	graph    *Graph
	lineCtr  int
}

// Build consumes an already include/import-resolved Schema and produces its
// ElementNode graph. The schema's own parse pass already performs graph.md
// §4.1's "first pass" (every global simpleType/complexType/attributeGroup/
// group/element registered in TypeDefs/ElementDecls); Build is entirely
// the second, expansion, pass.
func Build(schema *xsd.Schema, opts BuildOptions) (*Graph, error) {
	if schema == nil {
		return nil, fmt.Errorf("nil schema")
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	b := &builder{
		schema:   schema,
		opts:     opts,
		maxDepth: maxDepth,
		graph: &Graph{
			Schema:        schema,
			SchemaVersion: schema.Version,
			ByXPath:       make(map[string]*ElementNode),
		},
	}

	roots := b.selectRoots()
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].Name.String() < roots[j].Name.String()
	})

	for _, decl := range roots {
		if b.cancelled() {
			return b.graph, Cancelled
		}
		node, err := b.expand(decl, -1, "", nil, 0)
		if err != nil {
			return nil, err
		}
		if node != nil {
			b.graph.Roots = append(b.graph.Roots, node)
		}
	}

	return b.graph, nil
}

func (b *builder) cancelled() bool {
	if b.opts.Cancel == nil {
		return false
	}
	select {
	case <-b.opts.Cancel:
		return true
	default:
		return false
	}
}

func (b *builder) selectRoots() []*xsd.ElementDecl {
	var roots []*xsd.ElementDecl
	for name, decl := range b.schema.ElementDecls {
		if b.opts.RootElement != "" && name.Local != b.opts.RootElement {
			continue
		}
		roots = append(roots, decl)
	}
	return roots
}

// expand builds the node for a root-level decl and its descendants.
// prevTypes is the "prev_types" stack from §4.1: a list of type QNames on
// the current path, in descent order, used to detect and stop recursive
// branches.
func (b *builder) expand(decl *xsd.ElementDecl, parentIndex int, parentXPath string, prevTypes []xsd.QName, depth int) (*ElementNode, error) {
	xpath := parentXPath + "/" + decl.Name.Local
	if existing, ok := b.graph.ByXPath[xpath]; ok {
		// Identical recursive branch already collapsed onto this XPath.
		return existing, nil
	}
	return b.expandAt(decl, parentIndex, xpath, prevTypes, depth)
}

// recursionTargetXPath finds the XPath of the ancestor node whose resolved
// type equals typeName, so RecursionTarget names a concrete node rather
// than just repeating the type's QName.
func (b *builder) recursionTargetXPath(typeName xsd.QName) string {
	for xp, n := range b.graph.ByXPath {
		if ct, ok := n.ResolvedType.(*xsd.ComplexType); ok && ct.QName == typeName {
			return xp
		}
	}
	return typeName.String()
}

func containsQName(stack []xsd.QName, q xsd.QName) bool {
	for _, s := range stack {
		if s == q {
			return true
		}
	}
	return false
}

func normalizeMax(m int) int {
	if m < 0 {
		return Unbounded
	}
	return m
}

// repeats reports whether a particle's maxOccurs permits more than one
// occurrence, the tie-break spec.md §4.1 uses to decide whether an XPath
// needs an "[n]" index suffix.
func repeats(max int) bool {
	return max == Unbounded || max > 1
}

// resolveAttributes flattens a complex type's own attributes plus any
// attribute groups it references, mirroring Schema.ResolveAttributeGroups.
func (b *builder) resolveAttributes(ct *xsd.ComplexType) []*xsd.AttributeDecl {
	attrs := append([]*xsd.AttributeDecl{}, ct.Attributes...)
	attrs = append(attrs, b.schema.ResolveAttributeGroups(ct)...)
	return attrs
}

// expandContent walks a type's content model, creating a child ElementNode
// per particle. Nested sequence/choice/all groups are transparent: their
// particles are flattened directly onto the owning element's child list,
// in document order, which is the "flatten nested sequences" behavior
// droyo-go-xml's xsd package documents for the same shape of problem.
func (b *builder) expandContent(node *ElementNode, content xsd.Content, prevTypes []xsd.QName, depth int) error {
	switch c := content.(type) {
	case nil:
		return nil
	case *xsd.ModelGroup:
		return b.expandParticles(node, c.Particles, prevTypes, depth)
	case *xsd.SimpleContent:
		return nil // text-only content, no child elements
	case *xsd.ComplexContent:
		return b.expandContent(node, firstNonNil(c.Extension, c.Restriction), prevTypes, depth)
	case *xsd.GroupRef:
		if group, ok := b.schema.Groups[c.Ref]; ok {
			return b.expandParticles(node, group.Particles, prevTypes, depth)
		}
		return nil
	case *xsd.AllowAnyContent:
		return nil
	default:
		return nil
	}
}

// firstNonNil picks whichever of a complexContent's extension/restriction
// carries the actual nested content, since only one of the two is set.
func firstNonNil(ext *xsd.Extension, restr *xsd.Restriction) xsd.Content {
	if ext != nil && ext.Content != nil {
		return ext.Content
	}
	if ext != nil {
		// Extension with no own nested group still has a base to walk
		// attribute/content from; graph descent stays at the element level,
		// so there is nothing further to flatten here.
		return nil
	}
	if restr != nil {
		return restr.Content
	}
	return nil
}

func (b *builder) expandParticles(node *ElementNode, particles []xsd.Particle, prevTypes []xsd.QName, depth int) error {
	occurrence := make(map[string]int)
	for _, p := range particles {
		if b.cancelled() {
			return Cancelled
		}
		switch pt := p.(type) {
		case *xsd.ElementDecl:
			if err := b.expandChildDecl(node, pt, prevTypes, depth, occurrence); err != nil {
				return err
			}
		case *xsd.ElementRef:
			target, ok := b.schema.ElementDecls[pt.Ref]
			if !ok {
				b.graph.Warnings = append(b.graph.Warnings, Warning{
					Kind:    "UnresolvedElementRef",
					XPath:   node.XPath,
					Message: fmt.Sprintf("unresolved element reference %s under %s", pt.Ref, node.XPath),
				})
				continue
			}
			refDecl := *target
			refDecl.MinOcc = pt.MinOcc
			refDecl.MaxOcc = pt.MaxOcc
			if err := b.expandChildDecl(node, &refDecl, prevTypes, depth, occurrence); err != nil {
				return err
			}
		case *xsd.ModelGroup:
			if err := b.expandParticles(node, pt.Particles, prevTypes, depth); err != nil {
				return err
			}
		case *xsd.GroupRef:
			if group, ok := b.schema.Groups[pt.Ref]; ok {
				if err := b.expandParticles(node, group.Particles, prevTypes, depth); err != nil {
					return err
				}
			}
		case *xsd.AnyElement:
			// Wildcards carry no fixed name; represented as a synthetic
			// child whose name is the namespace constraint itself so
			// callers can still see that the content model allows one.
			wild := &ElementNode{
				Index:       len(b.graph.Nodes),
				ParentIndex: node.Index,
				Name:        xsd.QName{Local: "*"},
				XPath:       node.XPath + "/*",
				MinOccurs:   pt.MinOcc,
				MaxOccurs:   normalizeMax(pt.MaxOcc),
			}
			if _, exists := b.graph.ByXPath[wild.XPath]; !exists {
				b.graph.Nodes = append(b.graph.Nodes, wild)
				b.graph.ByXPath[wild.XPath] = wild
				node.Children = append(node.Children, wild.Index)
			}
		}
	}
	return nil
}

// expandChildDecl expands one child element declaration, applying the
// "[n]" XPath-index tie-break: a repeating particle's later occurrences in
// the same parent get an index suffix, the first does not.
func (b *builder) expandChildDecl(node *ElementNode, decl *xsd.ElementDecl, prevTypes []xsd.QName, depth int, occurrence map[string]int) error {
	base := node.XPath + "/" + decl.Name.Local
	var xpath string
	if !repeats(decl.MaxOcc) {
		xpath = base
	} else {
		occurrence[decl.Name.Local]++
		n := occurrence[decl.Name.Local]
		if n == 1 {
			xpath = base
		} else {
			xpath = fmt.Sprintf("%s[%d]", base, n)
		}
	}

	if existing, ok := b.graph.ByXPath[xpath]; ok {
		node.Children = append(node.Children, existing.Index)
		return nil
	}

	child, err := b.expandAt(decl, node.Index, xpath, prevTypes, depth)
	if err != nil {
		return err
	}
	node.Children = append(node.Children, child.Index)
	return nil
}

// expandAt is expand, but with a pre-computed XPath (used for children,
// whose XPath may carry an "[n]" suffix expand itself never applies).
func (b *builder) expandAt(decl *xsd.ElementDecl, parentIndex int, xpath string, prevTypes []xsd.QName, depth int) (*ElementNode, error) {
	b.lineCtr++
	node := &ElementNode{
		Index:       len(b.graph.Nodes),
		ParentIndex: parentIndex,
		Name:        decl.Name,
		XPath:       xpath,
		MinOccurs:   decl.MinOcc,
		MaxOccurs:   normalizeMax(decl.MaxOcc),
		Doc:         decl.Doc,
		SourceLine:  b.lineCtr,
	}
	if decl.Type != nil {
		node.DeclaredType = decl.Type.Name()
		node.ResolvedType = decl.Type
	}
	b.graph.Nodes = append(b.graph.Nodes, node)
	b.graph.ByXPath[xpath] = node

	if depth >= b.maxDepth {
		b.graph.Warnings = append(b.graph.Warnings, Warning{
			Kind:    "DepthExceeded",
			XPath:   xpath,
			Message: fmt.Sprintf("recursion depth exceeded %d at %s", b.maxDepth, xpath),
		})
		return node, nil
	}

	ct, ok := node.ResolvedType.(*xsd.ComplexType)
	if !ok {
		return node, nil
	}

	if containsQName(prevTypes, ct.QName) {
		node.Recursive = true
		node.RecursionTarget = b.recursionTargetXPath(ct.QName)
		return node, nil
	}

	node.Attributes = b.resolveAttributes(ct)

	childPrev := append(append([]xsd.QName{}, prevTypes...), ct.QName)
	if err := b.expandContent(node, ct.Content, childPrev, depth+1); err != nil {
		return nil, err
	}

	return node, nil
}
