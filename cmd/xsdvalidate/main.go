// Command xsdvalidate validates an XML instance document against an XSD
// schema and reports violations as rustc-style diagnostics.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/agentflare-ai/go-xmldom"
	xsd "github.com/freexmltoolkit/xmlkit"
)

func main() {
	color := flag.Bool("color", true, "colorize diagnostic output")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: xsdvalidate [-color=false] <xml-file> <xsd-file>")
		os.Exit(2)
	}
	xmlFile, xsdFile := args[0], args[1]

	xmlData, err := os.ReadFile(xmlFile)
	if err != nil {
		log.Fatalf("reading %s: %v", xmlFile, err)
	}

	doc, err := xmldom.NewDecoderFromBytes(xmlData).Decode()
	if err != nil {
		log.Fatalf("parsing %s: %v", xmlFile, err)
	}

	cache := xsd.NewSchemaCache("")
	schema, err := cache.Get(xsdFile)
	if err != nil {
		log.Fatalf("loading schema %s: %v", xsdFile, err)
	}

	validator := xsd.NewValidator(schema)
	violations := validator.Validate(doc)

	converter := xsd.NewDiagnosticConverter(xmlFile, string(xmlData))
	diagnostics := converter.Convert(violations)

	if len(diagnostics) == 0 {
		fmt.Printf("%s is valid against %s\n", xmlFile, xsdFile)
		return
	}

	formatter := &xsd.ErrorFormatter{Color: *color}
	fmt.Printf("%d validation issue(s) in %s:\n\n", len(diagnostics), xmlFile)
	for _, diag := range diagnostics {
		fmt.Print(formatter.Format(diag, string(xmlData)))
		fmt.Println()
	}
	os.Exit(1)
}
