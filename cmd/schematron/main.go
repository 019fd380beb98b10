// Command schematron validates an XML instance against a Schematron (or
// pre-compiled XSLT) schema and reports the resulting SVRL assertions.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/freexmltoolkit/xmlkit/schematron"
)

func main() {
	processor := flag.String("processor", "xsltproc", "external XSLT processor binary")
	skeletonDir := flag.String("skeleton-dir", "/usr/share/xml/schematron/resources/xsl", "ISO Schematron skeleton directory")
	workDir := flag.String("work-dir", "", "directory for compiled XSLT artifacts (defaults to os.TempDir)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: schematron [-processor=xsltproc] [-skeleton-dir=dir] <xml-file> <sch-or-xslt-file>")
		os.Exit(2)
	}
	xmlFile, schFile := args[0], args[1]

	cfg := schematron.DefaultConfig()
	cfg.Processor = *processor
	cfg.SkeletonDir = *skeletonDir

	compiler := schematron.NewCompiler(cfg, *workDir)

	errs, err := compiler.Validate(xmlFile, schFile)
	if err != nil {
		log.Fatalf("validating %s against %s: %v", xmlFile, schFile, err)
	}

	if len(errs) == 0 {
		fmt.Printf("%s satisfies %s\n", xmlFile, schFile)
		return
	}

	fmt.Printf("%d assertion(s) in %s:\n\n", len(errs), xmlFile)
	for _, e := range errs {
		fmt.Printf("[%s] %s: %s (rule %s)\n", e.Severity, e.ContextXPath, e.Message, e.RuleID)
	}
	os.Exit(1)
}
