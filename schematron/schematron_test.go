package schematron

import (
	"testing"

	"github.com/freexmltoolkit/xmlkit/internal/diagnostic"
)

// Scenario 4 (spec §8): one rule context="root" asserting "element", input
// <root/>, expects one error with a rule_id and the message text.
func TestParseSVRLFailedAssert(t *testing.T) {
	svrl := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<svrl:schematron-output xmlns:svrl="http://purl.oclc.org/dsdl/svrl">
  <svrl:pattern/>
  <svrl:fired-rule context="root" id="root-must-have-element"/>
  <svrl:failed-assert test="element" location="/root">
    <svrl:text>Root element must contain an element child</svrl:text>
  </svrl:failed-assert>
</svrl:schematron-output>`)

	errs, err := ParseSVRL(svrl)
	if err != nil {
		t.Fatalf("ParseSVRL: %v", err)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %+v", len(errs), errs)
	}
	e := errs[0]
	if e.RuleID != "root-must-have-element" {
		t.Errorf("rule id = %q, want root-must-have-element", e.RuleID)
	}
	if e.ContextXPath != "/root" {
		t.Errorf("context xpath = %q, want /root", e.ContextXPath)
	}
	if e.Message != "Root element must contain an element child" {
		t.Errorf("message = %q", e.Message)
	}
	if e.Severity != diagnostic.SeverityError {
		t.Errorf("severity = %v, want error (default)", e.Severity)
	}
}

func TestParseSVRLSuccessfulReportAndRoleSeverity(t *testing.T) {
	svrl := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<svrl:schematron-output xmlns:svrl="http://purl.oclc.org/dsdl/svrl">
  <svrl:fired-rule context="item" id="warn-rule"/>
  <svrl:successful-report test="true()" location="/root/item" role="warning">
    <svrl:text>Item reported</svrl:text>
  </svrl:successful-report>
</svrl:schematron-output>`)

	errs, err := ParseSVRL(svrl)
	if err != nil {
		t.Fatalf("ParseSVRL: %v", err)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].Severity != diagnostic.SeverityWarning {
		t.Errorf("severity = %v, want warning", errs[0].Severity)
	}
	if errs[0].Message != "Item reported" {
		t.Errorf("message = %q", errs[0].Message)
	}
}

func TestParseSVRLNoFailures(t *testing.T) {
	svrl := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<svrl:schematron-output xmlns:svrl="http://purl.oclc.org/dsdl/svrl">
  <svrl:fired-rule context="root" id="ok-rule"/>
</svrl:schematron-output>`)

	errs, err := ParseSVRL(svrl)
	if err != nil {
		t.Fatalf("ParseSVRL: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %d", len(errs))
	}
}

func TestRoleSeverityMapping(t *testing.T) {
	cases := map[string]diagnostic.Severity{
		"warning": diagnostic.SeverityWarning,
		"warn":    diagnostic.SeverityWarning,
		"info":    diagnostic.SeverityInfo,
		"fatal":   diagnostic.SeverityFatal,
		"":        diagnostic.SeverityError,
		"unknown": diagnostic.SeverityError,
	}
	for role, want := range cases {
		if got := roleSeverity(role); got != want {
			t.Errorf("roleSeverity(%q) = %v, want %v", role, got, want)
		}
	}
}

func TestNewCompilerDefaults(t *testing.T) {
	c := NewCompiler(Config{}, "")
	if c.cfg.Processor != "xsltproc" {
		t.Errorf("default processor = %q, want xsltproc", c.cfg.Processor)
	}
	if c.cfg.CacheSize != 64 {
		t.Errorf("default cache size = %d, want 64", c.cfg.CacheSize)
	}
}

func TestCompileOrLoadRejectsUnknownExtension(t *testing.T) {
	c := NewCompiler(DefaultConfig(), t.TempDir())
	if _, err := c.CompileOrLoad("nonexistent.txt"); err == nil {
		t.Fatal("expected an error for a non-.sch/.xsl/.xslt path")
	}
}
