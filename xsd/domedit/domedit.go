// Package domedit applies structural edits to an in-memory XSD DOM and
// renders the updated text. xmldom (the teacher's parse-only DOM) has no
// write surface, so edits operate on a beevik/etree tree instead, the same
// library the pack's certificate-signing code (adrianodrix-sped-nfe-go) uses
// to build and mutate XML trees by hand.
package domedit

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// XSDNamespace is the XML Schema namespace, matching xsd.XSDNamespace.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

// VCNamespace is the XSD 1.1 versioning-conformance namespace used by
// vc:minVersion.
const VCNamespace = "http://www.w3.org/2007/XMLSchema-versioning"

// Document wraps an editable XSD DOM.
type Document struct {
	tree *etree.Document
	xsPrefix string
}

// Load parses an XSD file into an editable Document.
func Load(path string) (*Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("domedit: reading %s: %w", path, err)
	}
	return newDocument(tree)
}

// LoadString parses XSD source text into an editable Document.
func LoadString(xml string) (*Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromString(xml); err != nil {
		return nil, fmt.Errorf("domedit: parsing schema text: %w", err)
	}
	return newDocument(tree)
}

func newDocument(tree *etree.Document) (*Document, error) {
	root := tree.Root()
	if root == nil {
		return nil, fmt.Errorf("domedit: schema has no root element")
	}
	d := &Document{tree: tree, xsPrefix: "xs"}
	for _, attr := range root.Attr {
		if attr.Value == XSDNamespace && strings.HasPrefix(attr.FullKey(), "xmlns:") {
			d.xsPrefix = strings.TrimPrefix(attr.FullKey(), "xmlns:")
			break
		}
	}
	return d, nil
}

// Root returns the schema's root xs:schema element.
func (d *Document) Root() *etree.Element {
	return d.tree.Root()
}

// Serialize renders the DOM with 2-space indentation, preserving comments
// and attribute order, per spec.md §4.5's Output contract.
func (d *Document) Serialize() (string, error) {
	d.tree.Indent(2)
	return d.tree.WriteToString()
}

// find resolves an XPath-like location to a single element. Locations are
// slash-joined schema tag paths such as "/schema/element/complexType"
// (optionally with etree "[n]" positions), not the element-name XPaths
// xsd/graph produces; bare etree path expressions are accepted too.
func (d *Document) find(xpath string) (*etree.Element, error) {
	path := toEtreePath(xpath)
	el := d.tree.FindElement(path)
	if el == nil {
		return nil, fmt.Errorf("domedit: no element at %s", xpath)
	}
	return el, nil
}

// toEtreePath turns a slash-joined tag path ("/schema/element[2]/child") into
// an etree find expression by prefixing a document-relative search when the
// path isn't already anchored.
func toEtreePath(xpath string) string {
	if strings.HasPrefix(xpath, "//") || strings.HasPrefix(xpath, "./") {
		return xpath
	}
	if strings.HasPrefix(xpath, "/") {
		return "." + xpath
	}
	return ".//" + xpath
}

// qualify returns name prefixed with the schema's xs: prefix, e.g.
// "element" -> "xs:element".
func (d *Document) qualify(local string) string {
	return d.xsPrefix + ":" + local
}

func childIndex(parent, child *etree.Element) int {
	for i, c := range parent.ChildElements() {
		if c == child {
			return i
		}
	}
	return -1
}

func serializeElement(el *etree.Element) string {
	if el == nil {
		return ""
	}
	tmp := etree.NewDocument()
	tmp.SetRoot(el.Copy())
	s, _ := tmp.WriteToString()
	return s
}

func parseElement(snapshot string) (*etree.Element, error) {
	if snapshot == "" {
		return nil, fmt.Errorf("domedit: empty snapshot")
	}
	tmp := etree.NewDocument()
	if err := tmp.ReadFromString(snapshot); err != nil {
		return nil, err
	}
	return tmp.Root(), nil
}
