package graph

import (
	"testing"

	"github.com/freexmltoolkit/xmlkit"
)

func mustBuild(t *testing.T, src string, opts BuildOptions) *Graph {
	t.Helper()
	schema, err := xsd.LoadSchemaFromString(src, "")
	if err != nil {
		t.Fatalf("LoadSchemaFromString: %v", err)
	}
	g, err := Build(schema, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestBuildSimpleSequence(t *testing.T) {
	src := `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="root">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="a" type="xs:string"/>
        <xs:element name="b" type="xs:int" minOccurs="0"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

	g := mustBuild(t, src, BuildOptions{})
	if len(g.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(g.Roots))
	}
	root := g.Roots[0]
	if root.XPath != "/root" {
		t.Fatalf("root xpath = %q, want /root", root.XPath)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}
	a := g.Node(root.Children[0])
	if a.XPath != "/root/a" {
		t.Fatalf("child a xpath = %q, want /root/a", a.XPath)
	}
	b := g.Node(root.Children[1])
	if b.MinOccurs != 0 {
		t.Fatalf("child b minOccurs = %d, want 0", b.MinOccurs)
	}
}

// Invariant: every XPath starts with "/" and ends with the node's local
// name, and no XPath appears twice in the graph (spec §8 invariants).
func TestXPathInvariants(t *testing.T) {
	src := `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="root">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="item" type="xs:string" maxOccurs="3"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

	g := mustBuild(t, src, BuildOptions{})
	seen := make(map[string]bool)
	for xp, n := range g.ByXPath {
		if xp[0] != '/' {
			t.Errorf("xpath %q does not start with /", xp)
		}
		if seen[xp] {
			t.Errorf("xpath %q appears twice", xp)
		}
		seen[xp] = true
		if n.ParentIndex >= 0 {
			parent := g.Node(n.ParentIndex)
			if parent != nil && parent.XPath+"/"+n.Name.Local != xp {
				// allow the "[n]" index suffix form
				if parent.XPath+"/"+n.Name.Local+"[1]" != xp {
					t.Errorf("child xpath %q does not derive from parent %q + name %q", xp, parent.XPath, n.Name.Local)
				}
			}
		}
	}
}

// Scenario 3: a recursive schema must terminate with a warning, not a stack
// overflow, and the recursive branch must stop descent (spec §8 scenario 3,
// §4.1 algorithm step 2).
func TestRecursiveSchemaTerminates(t *testing.T) {
	src := `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="root" type="NodeType"/>
  <xs:complexType name="NodeType">
    <xs:sequence>
      <xs:element name="child" type="NodeType" minOccurs="0" maxOccurs="1"/>
    </xs:sequence>
  </xs:complexType>
</xs:schema>`

	g := mustBuild(t, src, BuildOptions{})
	if len(g.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(g.Roots))
	}
	root := g.Roots[0]
	if len(root.Children) != 1 {
		t.Fatalf("expected root to have 1 child, got %d", len(root.Children))
	}
	child := g.Node(root.Children[0])
	if !child.Recursive {
		t.Fatalf("expected child to be marked recursive")
	}
	if child.RecursionTarget == "" {
		t.Fatalf("expected a recursion target to be recorded")
	}
	// The recursive node itself must not have descended further.
	if len(child.Children) != 0 {
		t.Fatalf("recursive node should not have expanded children, got %d", len(child.Children))
	}
}

func TestDepthGuardEmitsWarningNotPanic(t *testing.T) {
	src := `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="root" type="NodeType"/>
  <xs:complexType name="NodeType">
    <xs:sequence>
      <xs:element name="child" type="ChildType" minOccurs="0" maxOccurs="1"/>
    </xs:sequence>
  </xs:complexType>
  <xs:complexType name="ChildType">
    <xs:sequence>
      <xs:element name="grandchild" type="NodeType" minOccurs="0" maxOccurs="1"/>
    </xs:sequence>
  </xs:complexType>
</xs:schema>`

	g := mustBuild(t, src, BuildOptions{MaxDepth: 1})
	found := false
	for _, w := range g.Warnings {
		if w.Kind == "DepthExceeded" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a DepthExceeded warning, got %v", g.Warnings)
	}
}

func TestChoiceGroupFlattened(t *testing.T) {
	src := `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="root">
    <xs:complexType>
      <xs:choice>
        <xs:element name="x" type="xs:string"/>
        <xs:element name="y" type="xs:string"/>
      </xs:choice>
    </xs:complexType>
  </xs:element>
</xs:schema>`

	g := mustBuild(t, src, BuildOptions{})
	root := g.Roots[0]
	if len(root.Children) != 2 {
		t.Fatalf("expected choice particles flattened onto root, got %d children", len(root.Children))
	}
}

func TestRootElementOption(t *testing.T) {
	src := `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="first" type="xs:string"/>
  <xs:element name="second" type="xs:string"/>
</xs:schema>`

	g := mustBuild(t, src, BuildOptions{RootElement: "second"})
	if len(g.Roots) != 1 {
		t.Fatalf("expected exactly 1 root when RootElement is set, got %d", len(g.Roots))
	}
	if g.Roots[0].Name.Local != "second" {
		t.Fatalf("expected root %q, got %q", "second", g.Roots[0].Name.Local)
	}
}

func TestRepeatingElementFirstOccurrenceHasNoIndexSuffix(t *testing.T) {
	src := `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="root">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="item" type="xs:string" maxOccurs="unbounded"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

	g := mustBuild(t, src, BuildOptions{})
	root := g.Roots[0]
	item := g.Node(root.Children[0])
	if item.XPath != "/root/item" {
		t.Fatalf("first occurrence xpath = %q, want /root/item (no suffix)", item.XPath)
	}
	if item.MaxOccurs != Unbounded {
		t.Fatalf("expected Unbounded sentinel, got %d", item.MaxOccurs)
	}
}
