// Package conformance runs declarative conformance suites against the
// XSD, Schematron, XML signature, and JSON engines, scoring each case
// pass/fail against its declared expectation. Replaces the teacher's
// W3CTestRunner, which drove only the downloaded W3C XSD Test Suite;
// this runner drives a bundled fixture corpus covering all four engines.
package conformance

import (
	"encoding/xml"
	"fmt"
	"os"
)

// Suite mirrors the teacher's W3CTestSet shape (testSet/testGroup/test),
// generalized with a Kind attribute so one manifest format can drive
// every engine instead of only schema/instance tests.
type Suite struct {
	XMLName  xml.Name `xml:"suite"`
	Name     string   `xml:"name,attr"`
	Groups   []Group  `xml:"group"`
}

// Group collects related cases, analogous to W3CTestGroup.
type Group struct {
	Name  string `xml:"name,attr"`
	Cases []Case `xml:"case"`
}

// Case describes one conformance check. Kind selects which engine runs
// it; the remaining fields are interpreted per kind (see runner.go).
type Case struct {
	Name     string `xml:"name,attr"`
	Kind     string `xml:"kind,attr"` // xsd-schema, xsd-instance, schematron, signature, json-schema, json-wellformed
	Expected string `xml:"expected,attr"` // "valid" or "invalid"

	Schema    string `xml:"schema,attr"`
	Instance  string `xml:"instance,attr"`
	Rules     string `xml:"rules,attr"`   // Schematron .sch path
	Document  string `xml:"document,attr"` // signed XML or JSON text file
}

// LoadSuite parses a conformance manifest from disk.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite manifest %s: %w", path, err)
	}
	var suite Suite
	if err := xml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parsing suite manifest %s: %w", path, err)
	}
	return &suite, nil
}
