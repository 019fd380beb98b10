package domedit

import (
	"strings"
	"testing"
)

const sampleSchema = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://example.com">
	<xs:element name="order">
		<xs:complexType>
			<xs:sequence>
				<xs:element name="id" type="xs:string"/>
			</xs:sequence>
		</xs:complexType>
	</xs:element>
	<xs:simpleType name="quantity">
		<xs:restriction base="xs:int"/>
	</xs:simpleType>
</xs:schema>`

func TestAddElement(t *testing.T) {
	doc, err := LoadString(sampleSchema)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	rec, err := doc.AddElement("/schema/element/complexType/sequence", "qty", "quantity", 0, -1, nil)
	if err != nil {
		t.Fatalf("AddElement: %v", err)
	}
	if rec.Kind != KindAddElement {
		t.Fatalf("record kind = %s, want %s", rec.Kind, KindAddElement)
	}

	out, err := doc.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !strings.Contains(out, `name="qty"`) {
		t.Fatalf("serialized schema missing new element:\n%s", out)
	}
	if !strings.Contains(out, `maxOccurs="unbounded"`) {
		t.Fatalf("serialized schema missing maxOccurs:\n%s", out)
	}
}

func TestAddElementUndo(t *testing.T) {
	doc, err := LoadString(sampleSchema)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	h := NewHistory()
	rec, err := doc.AddElement("/schema/element/complexType/sequence", "qty", "quantity", 1, 1, nil)
	if err != nil {
		t.Fatalf("AddElement: %v", err)
	}
	h.Push(rec)

	if err := h.Undo(doc); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	out, _ := doc.Serialize()
	if strings.Contains(out, `name="qty"`) {
		t.Fatalf("undo left the added element in place:\n%s", out)
	}

	if err := h.Redo(doc); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	out, _ = doc.Serialize()
	if !strings.Contains(out, `name="qty"`) {
		t.Fatalf("redo did not restore the added element:\n%s", out)
	}
}

func TestRenameRewritesReferences(t *testing.T) {
	schema := `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://example.com">
	<xs:element name="order" type="OrderType"/>
	<xs:complexType name="OrderType">
		<xs:sequence>
			<xs:element name="id" type="xs:string"/>
		</xs:sequence>
	</xs:complexType>
</xs:schema>`
	doc, err := LoadString(schema)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	if _, err := doc.Rename("/schema/complexType", "PurchaseOrderType"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	out, err := doc.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if strings.Contains(out, "OrderType") && !strings.Contains(out, "PurchaseOrderType") {
		t.Fatalf("reference was not rewritten:\n%s", out)
	}
	if !strings.Contains(out, `type="PurchaseOrderType"`) {
		t.Fatalf("element's type reference was not updated:\n%s", out)
	}
	if !strings.Contains(out, `name="PurchaseOrderType"`) {
		t.Fatalf("complexType was not renamed:\n%s", out)
	}
}

func TestAddFacet(t *testing.T) {
	doc, err := LoadString(sampleSchema)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	rec, err := doc.AddFacet("/schema/simpleType", FacetMinInclusive, "1")
	if err != nil {
		t.Fatalf("AddFacet: %v", err)
	}
	if rec.Kind != KindAddFacet {
		t.Fatalf("record kind = %s, want %s", rec.Kind, KindAddFacet)
	}

	out, _ := doc.Serialize()
	if !strings.Contains(out, `xs:minInclusive value="1"`) {
		t.Fatalf("serialized schema missing facet:\n%s", out)
	}
}

func TestAddAssertionInjectsVersioning(t *testing.T) {
	doc, err := LoadString(sampleSchema)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	rec, err := doc.AddAssertion("/schema/element/complexType", "count(id) > 0", "order must have an id")
	if err != nil {
		t.Fatalf("AddAssertion: %v", err)
	}
	if !rec.VersioningAdded {
		t.Fatalf("expected VersioningAdded to be true on first assertion")
	}

	out, _ := doc.Serialize()
	if !strings.Contains(out, `vc:minVersion="1.1"`) {
		t.Fatalf("serialized schema missing vc:minVersion:\n%s", out)
	}
	if !strings.Contains(out, `xs:assert`) {
		t.Fatalf("serialized schema missing xs:assert:\n%s", out)
	}
	if !strings.Contains(out, "order must have an id") {
		t.Fatalf("serialized schema missing assertion message:\n%s", out)
	}

	// A second assertion must not add the versioning namespace again.
	rec2, err := doc.AddAssertion("/schema/element/complexType", "string-length(id) < 40", "")
	if err != nil {
		t.Fatalf("second AddAssertion: %v", err)
	}
	if rec2.VersioningAdded {
		t.Fatalf("expected VersioningAdded to be false once vc namespace already exists")
	}
}

func TestAddAssertionRejectsNonType(t *testing.T) {
	doc, err := LoadString(sampleSchema)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if _, err := doc.AddAssertion("/schema/element", "true()", ""); err == nil {
		t.Fatalf("expected AddAssertion on a bare element to fail")
	}
}

func TestAddAttributeRejectsDuplicate(t *testing.T) {
	doc, err := LoadString(sampleSchema)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if _, err := doc.AddAttribute("/schema/element/complexType", "units", "xs:string", UseOptional, ""); err != nil {
		t.Fatalf("first AddAttribute: %v", err)
	}
	if _, err := doc.AddAttribute("/schema/element/complexType", "units", "xs:string", UseOptional, ""); err == nil {
		t.Fatalf("expected duplicate attribute add to fail")
	}
}
