// Command conformance runs the bundled conformance suite against the
// XSD, Schematron, signature, and JSON engines and reports pass/fail
// counts per engine.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/freexmltoolkit/xmlkit/internal/conformance"
)

func main() {
	var (
		suitePath = flag.String("suite", "internal/conformance/testdata/suite.xml", "conformance manifest")
		baseDir   = flag.String("dir", "internal/conformance/testdata", "base directory fixture paths resolve against")
		verbose   = flag.Bool("verbose", false, "print each case's result")
		analyze   = flag.Bool("analyze", false, "append a failure category breakdown")
	)
	flag.Parse()

	suite, err := conformance.LoadSuite(*suitePath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	runner := conformance.NewRunner(*baseDir)
	runner.Verbose = *verbose
	runner.RunSuite(suite)

	report := runner.GenerateReport()
	if *analyze {
		cats := conformance.AnalyzeFailures(runner.Results)
		report = report + "\n" + conformance.GenerateFailureReport(cats)
	}
	fmt.Println(report)

	for _, result := range runner.Results {
		if !result.Passed {
			os.Exit(1)
		}
	}
}
