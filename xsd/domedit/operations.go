package domedit

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// FacetKind enumerates the facets add_facet understands, per spec.md §4.5.
type FacetKind string

const (
	FacetPattern        FacetKind = "pattern"
	FacetEnumeration    FacetKind = "enumeration"
	FacetMinInclusive   FacetKind = "minInclusive"
	FacetMaxInclusive   FacetKind = "maxInclusive"
	FacetMinExclusive   FacetKind = "minExclusive"
	FacetMaxExclusive   FacetKind = "maxExclusive"
	FacetMinLength      FacetKind = "minLength"
	FacetMaxLength      FacetKind = "maxLength"
	FacetTotalDigits    FacetKind = "totalDigits"
	FacetFractionDigits FacetKind = "fractionDigits"
	FacetWhitespace     FacetKind = "whitespace"
)

// AttributeUse mirrors xsd.AttributeUse's wire values.
type AttributeUse string

const (
	UseOptional AttributeUse = "optional"
	UseRequired AttributeUse = "required"
	UseProhibited AttributeUse = "prohibited"
)

// AddElement inserts a new xs:element declaration under parentXPath,
// per spec.md §4.5. Attributes is an optional set of (name, type) pairs
// added directly on the new element when it carries an inline complex
// type; pass nil to add the element without an inline complex type.
func (d *Document) AddElement(parentXPath, name, typeName string, minOccurs, maxOccurs int, attributes map[string]string) (EditRecord, error) {
	if name == "" {
		return EditRecord{}, fmt.Errorf("domedit: add_element requires a name")
	}
	parent, err := d.find(parentXPath)
	if err != nil {
		return EditRecord{}, err
	}

	el := etree.NewElement(d.qualify("element"))
	el.CreateAttr("name", name)
	if typeName != "" {
		el.CreateAttr("type", typeName)
	}
	if minOccurs != 1 {
		el.CreateAttr("minOccurs", strconv.Itoa(minOccurs))
	}
	if maxOccurs == -1 {
		el.CreateAttr("maxOccurs", "unbounded")
	} else if maxOccurs != 1 {
		el.CreateAttr("maxOccurs", strconv.Itoa(maxOccurs))
	}
	if len(attributes) > 0 {
		names := make([]string, 0, len(attributes))
		for attrName := range attributes {
			names = append(names, attrName)
		}
		sort.Strings(names)
		ct := ensureInlineComplexType(d, el)
		for _, attrName := range names {
			addAttributeDecl(d, ct, attrName, attributes[attrName], UseOptional, "")
		}
	}

	parent.AddChild(el)
	xpath := childXPath(parentXPath, el, parent)

	return EditRecord{
		Kind:        KindAddElement,
		XPath:       xpath,
		ParentXPath: parentXPath,
		Index:       childIndex(parent, el),
		After:       serializeElement(el),
	}, nil
}

// RemoveElement deletes the element at xpath, returning an EditRecord that
// can restore it at the same position.
func (d *Document) RemoveElement(xpath string) (EditRecord, error) {
	el, err := d.find(xpath)
	if err != nil {
		return EditRecord{}, err
	}
	parent := el.Parent()
	if parent == nil {
		return EditRecord{}, fmt.Errorf("domedit: cannot remove the document root")
	}
	parentXPath := strings.TrimSuffix(xpath, "/"+lastSegment(xpath))
	rec := EditRecord{
		Kind:        KindRemoveElement,
		XPath:       xpath,
		ParentXPath: parentXPath,
		Index:       childIndex(parent, el),
		Before:      serializeElement(el),
	}
	parent.RemoveChild(el)
	return rec, nil
}

// Rename changes an element's name attribute and rewrites references to it
// elsewhere in the same schema (ref="oldName" and type="oldName" style
// QName references sharing the local part).
func (d *Document) Rename(xpath, newName string) (EditRecord, error) {
	el, err := d.find(xpath)
	if err != nil {
		return EditRecord{}, err
	}
	nameAttr := el.SelectAttr("name")
	if nameAttr == nil {
		return EditRecord{}, fmt.Errorf("domedit: element at %s has no name attribute to rename", xpath)
	}
	oldName := nameAttr.Value
	if oldName == newName {
		return EditRecord{}, nil
	}

	rec := EditRecord{
		Kind:      KindRename,
		XPath:     xpath,
		Attribute: "name",
		OldValue:  oldName,
		NewValue:  newName,
	}

	el.CreateAttr("name", newName)
	renameReferences(d.Root(), oldName, newName)
	return rec, nil
}

// AddAttribute adds an xs:attribute declaration to the complex type (or
// attribute group) at ownerXPath.
func (d *Document) AddAttribute(ownerXPath, name, typeName string, use AttributeUse, defaultValue string) (EditRecord, error) {
	owner, err := d.find(ownerXPath)
	if err != nil {
		return EditRecord{}, err
	}
	if existing := findAttributeDecl(d, owner, name); existing != nil {
		return EditRecord{}, fmt.Errorf("domedit: attribute %q already declared at %s", name, ownerXPath)
	}

	el := addAttributeDecl(d, owner, name, typeName, use, defaultValue)
	return EditRecord{
		Kind:        KindAddAttribute,
		XPath:       ownerXPath,
		Attribute:   name,
		ParentXPath: ownerXPath,
		Index:       childIndex(owner, el),
		After:       serializeElement(el),
	}, nil
}

// AddFacet appends a facet restriction to the simple type at
// simpleTypeXPath. If simpleTypeXPath points at an xs:simpleType directly
// it is used as-is; if it lacks an xs:restriction child, one is created
// with base="xs:string" (callers needing a different base should add the
// facet after establishing the restriction's base themselves by editing
// the returned element).
func (d *Document) AddFacet(simpleTypeXPath string, kind FacetKind, value string) (EditRecord, error) {
	st, err := d.find(simpleTypeXPath)
	if err != nil {
		return EditRecord{}, err
	}
	restriction := st.SelectElement(d.qualify("restriction"))
	if restriction == nil {
		restriction = etree.NewElement(d.qualify("restriction"))
		restriction.CreateAttr("base", d.qualify("string"))
		st.AddChild(restriction)
	}

	facet := etree.NewElement(d.qualify(string(kind)))
	facet.CreateAttr("value", value)
	restriction.AddChild(facet)

	return EditRecord{
		Kind:        KindAddFacet,
		XPath:       simpleTypeXPath,
		ParentXPath: simpleTypeXPath,
		Index:       childIndex(restriction, facet),
		After:       serializeElement(facet),
	}, nil
}

// AddAssertion adds an xs:assert to the complex-or-simple type at
// typeXPath, per spec.md §4.5's XSD 1.1 assertion support. The assertion
// visibility policy (only directly-declared types are valid assertion
// sites) is the caller's responsibility to enforce before calling this —
// domedit itself only checks that typeXPath resolves to an
// xs:complexType/xs:simpleType element.
func (d *Document) AddAssertion(typeXPath, testExpression, message string) (EditRecord, error) {
	typeEl, err := d.find(typeXPath)
	if err != nil {
		return EditRecord{}, err
	}
	local := localName(typeEl.Tag)
	if local != "complexType" && local != "simpleType" {
		return EditRecord{}, fmt.Errorf("domedit: %s is not a complexType or simpleType", typeXPath)
	}

	versioningAdded := d.ensureVersioningNamespace()

	assert := etree.NewElement(d.qualify("assert"))
	assert.CreateAttr("test", testExpression)
	if message != "" {
		annotation := etree.NewElement(d.qualify("annotation"))
		doc := etree.NewElement(d.qualify("documentation"))
		doc.SetText(message)
		annotation.AddChild(doc)
		assert.AddChild(annotation)
	}
	typeEl.AddChild(assert)

	return EditRecord{
		Kind:            KindAddAssertion,
		XPath:           typeXPath,
		ParentXPath:     typeXPath,
		Index:           childIndex(typeEl, assert),
		After:           serializeElement(assert),
		VersioningAdded: versioningAdded,
	}, nil
}

// ensureVersioningNamespace adds xmlns:vc and vc:minVersion="1.1" to the
// schema root if not already present, returning true if it added them.
func (d *Document) ensureVersioningNamespace() bool {
	root := d.Root()
	for _, attr := range root.Attr {
		if attr.Value == VCNamespace {
			return false
		}
	}
	root.CreateAttr("xmlns:vc", VCNamespace)
	root.CreateAttr("vc:minVersion", "1.1")
	return true
}

func (d *Document) removeVersioningNamespace() {
	root := d.Root()
	root.RemoveAttr("xmlns:vc")
	root.RemoveAttr("vc:minVersion")
}

// undo reverses rec against d.
func (d *Document) undo(rec EditRecord) error {
	switch rec.Kind {
	case KindAddElement:
		el, err := d.find(rec.XPath)
		if err != nil {
			return err
		}
		parent := el.Parent()
		if parent != nil {
			parent.RemoveChild(el)
		}
		return nil
	case KindRemoveElement:
		return d.reinsert(rec)
	case KindRename:
		el, err := d.find(rec.XPath)
		if err != nil {
			return err
		}
		el.CreateAttr("name", rec.OldValue)
		renameReferences(d.Root(), rec.NewValue, rec.OldValue)
		return nil
	case KindAddAttribute:
		owner, err := d.find(rec.ParentXPath)
		if err != nil {
			return err
		}
		if existing := findAttributeDecl(d, owner, rec.Attribute); existing != nil {
			owner.RemoveChild(existing)
		}
		return nil
	case KindAddFacet:
		parent, err := d.find(rec.ParentXPath)
		if err != nil {
			return err
		}
		restriction := parent.SelectElement(d.qualify("restriction"))
		if restriction != nil && rec.Index < len(restriction.ChildElements()) {
			restriction.RemoveChild(restriction.ChildElements()[rec.Index])
		}
		return nil
	case KindAddAssertion:
		typeEl, err := d.find(rec.XPath)
		if err != nil {
			return err
		}
		children := typeEl.ChildElements()
		if rec.Index < len(children) {
			typeEl.RemoveChild(children[rec.Index])
		}
		if rec.VersioningAdded {
			d.removeVersioningNamespace()
		}
		return nil
	default:
		return fmt.Errorf("domedit: undo: unknown edit kind %q", rec.Kind)
	}
}

// redo reapplies rec against d.
func (d *Document) redo(rec EditRecord) error {
	switch rec.Kind {
	case KindAddElement, KindAddFacet, KindAddAssertion, KindAddAttribute:
		return d.reinsertAfter(rec)
	case KindRemoveElement:
		el, err := d.find(rec.XPath)
		if err != nil {
			return err
		}
		if parent := el.Parent(); parent != nil {
			parent.RemoveChild(el)
		}
		return nil
	case KindRename:
		el, err := d.find(rec.XPath)
		if err != nil {
			return err
		}
		el.CreateAttr("name", rec.NewValue)
		renameReferences(d.Root(), rec.OldValue, rec.NewValue)
		return nil
	default:
		return fmt.Errorf("domedit: redo: unknown edit kind %q", rec.Kind)
	}
}

func (d *Document) reinsert(rec EditRecord) error {
	el, err := parseElement(rec.Before)
	if err != nil {
		return err
	}
	parent, err := d.find(rec.ParentXPath)
	if err != nil {
		return err
	}
	parent.InsertChildAt(rec.Index, el)
	return nil
}

func (d *Document) reinsertAfter(rec EditRecord) error {
	el, err := parseElement(rec.After)
	if err != nil {
		return err
	}
	parent, err := d.find(rec.ParentXPath)
	if err != nil {
		return err
	}
	parent.InsertChildAt(rec.Index, el)
	return nil
}

// --- helpers ---

func ensureInlineComplexType(d *Document, el *etree.Element) *etree.Element {
	if ct := el.SelectElement(d.qualify("complexType")); ct != nil {
		return ct
	}
	ct := etree.NewElement(d.qualify("complexType"))
	el.AddChild(ct)
	return ct
}

func addAttributeDecl(d *Document, owner *etree.Element, name, typeName string, use AttributeUse, defaultValue string) *etree.Element {
	attr := etree.NewElement(d.qualify("attribute"))
	attr.CreateAttr("name", name)
	if typeName != "" {
		attr.CreateAttr("type", typeName)
	}
	if use != "" && use != UseOptional {
		attr.CreateAttr("use", string(use))
	}
	if defaultValue != "" {
		attr.CreateAttr("default", defaultValue)
	}
	owner.AddChild(attr)
	return attr
}

func findAttributeDecl(d *Document, owner *etree.Element, name string) *etree.Element {
	for _, child := range owner.ChildElements() {
		if localName(child.Tag) != "attribute" {
			continue
		}
		if nameAttr := child.SelectAttr("name"); nameAttr != nil && nameAttr.Value == name {
			return child
		}
	}
	return nil
}

// renameReferences rewrites ref="old"/type="old" QName references (ignoring
// namespace prefix) anywhere under root. Prefixes themselves are never
// touched: a reference whose local part matches is rewritten under whatever
// prefix it already uses, even one that differs from the declaration's, so
// no namespace prefix is ever renamed (spec.md §4.5's invariant).
func renameReferences(root *etree.Element, oldName, newName string) {
	if root == nil {
		return
	}
	for _, el := range root.ChildElements() {
		for _, attrName := range []string{"ref", "type", "base", "itemType", "substitutionGroup"} {
			if attr := el.SelectAttr(attrName); attr != nil && localName(attr.Value) == oldName {
				prefix := qnamePrefix(attr.Value)
				if prefix == "" {
					el.CreateAttr(attrName, newName)
				} else {
					el.CreateAttr(attrName, prefix+":"+newName)
				}
			}
		}
		renameReferences(el, oldName, newName)
	}
}

func localName(qname string) string {
	if idx := strings.IndexByte(qname, ':'); idx >= 0 {
		return qname[idx+1:]
	}
	return qname
}

func qnamePrefix(qname string) string {
	if idx := strings.IndexByte(qname, ':'); idx >= 0 {
		return qname[:idx]
	}
	return ""
}

func lastSegment(xpath string) string {
	idx := strings.LastIndexByte(xpath, '/')
	if idx < 0 {
		return xpath
	}
	return xpath[idx+1:]
}

// childXPath derives the child's xpath from its parent's in the tag-based
// form find resolves: parent_xpath + "/" + the child's local tag name, plus a
// 1-based "[n]" position when the parent has more than one child with that tag.
func childXPath(parentXPath string, child, parent *etree.Element) string {
	name := localName(child.Tag)
	count := 0
	for _, c := range parent.ChildElements() {
		if c.Tag == child.Tag {
			count++
		}
	}
	base := strings.TrimSuffix(parentXPath, "/") + "/" + name
	if count > 1 {
		return fmt.Sprintf("%s[%d]", base, count)
	}
	return base
}
