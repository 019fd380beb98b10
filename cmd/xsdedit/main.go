// Command xsdedit applies a single structural edit to an XSD file and
// prints the resulting schema text.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/freexmltoolkit/xmlkit/xsd/domedit"
)

func main() {
	if len(os.Args) < 3 {
		usage()
	}
	op := os.Args[1]
	xsdFile := os.Args[2]
	argv := os.Args[3:]

	doc, err := domedit.Load(xsdFile)
	if err != nil {
		log.Fatalf("loading %s: %v", xsdFile, err)
	}

	switch op {
	case "add-element":
		addElement(doc, argv)
	case "remove-element":
		removeElement(doc, argv)
	case "rename":
		rename(doc, argv)
	case "add-attribute":
		addAttribute(doc, argv)
	case "add-facet":
		addFacet(doc, argv)
	case "add-assert":
		addAssert(doc, argv)
	default:
		usage()
	}

	out, err := doc.Serialize()
	if err != nil {
		log.Fatalf("serializing result: %v", err)
	}
	fmt.Print(out)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: xsdedit <op> <xsd-file> <args...>

  add-element    <parent-xpath> <name> <type> <minOccurs> <maxOccurs>
  remove-element <xpath>
  rename         <xpath> <new-name>
  add-attribute  <owner-xpath> <name> <type> <use> [default]
  add-facet      <simpletype-xpath> <kind> <value>
  add-assert     <type-xpath> <test-expr> [message]`)
	os.Exit(2)
}

func addElement(doc *domedit.Document, argv []string) {
	if len(argv) < 5 {
		usage()
	}
	minOccurs, err := strconv.Atoi(argv[3])
	if err != nil {
		log.Fatalf("invalid minOccurs %q: %v", argv[3], err)
	}
	maxOccurs := -1
	if argv[4] != "unbounded" {
		maxOccurs, err = strconv.Atoi(argv[4])
		if err != nil {
			log.Fatalf("invalid maxOccurs %q: %v", argv[4], err)
		}
	}
	if _, err := doc.AddElement(argv[0], argv[1], argv[2], minOccurs, maxOccurs, nil); err != nil {
		log.Fatalf("add-element: %v", err)
	}
}

func removeElement(doc *domedit.Document, argv []string) {
	if len(argv) < 1 {
		usage()
	}
	if _, err := doc.RemoveElement(argv[0]); err != nil {
		log.Fatalf("remove-element: %v", err)
	}
}

func rename(doc *domedit.Document, argv []string) {
	if len(argv) < 2 {
		usage()
	}
	if _, err := doc.Rename(argv[0], argv[1]); err != nil {
		log.Fatalf("rename: %v", err)
	}
}

func addAttribute(doc *domedit.Document, argv []string) {
	if len(argv) < 4 {
		usage()
	}
	def := ""
	if len(argv) > 4 {
		def = argv[4]
	}
	if _, err := doc.AddAttribute(argv[0], argv[1], argv[2], domedit.AttributeUse(argv[3]), def); err != nil {
		log.Fatalf("add-attribute: %v", err)
	}
}

func addFacet(doc *domedit.Document, argv []string) {
	if len(argv) < 3 {
		usage()
	}
	if _, err := doc.AddFacet(argv[0], domedit.FacetKind(argv[1]), argv[2]); err != nil {
		log.Fatalf("add-facet: %v", err)
	}
}

func addAssert(doc *domedit.Document, argv []string) {
	if len(argv) < 2 {
		usage()
	}
	msg := ""
	if len(argv) > 2 {
		msg = argv[2]
	}
	if _, err := doc.AddAssertion(argv[0], argv[1], msg); err != nil {
		log.Fatalf("add-assert: %v", err)
	}
}
