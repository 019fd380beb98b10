package xsd

import (
	"github.com/agentflare-ai/go-xmldom"
	"github.com/freexmltoolkit/xmlkit/internal/diagnostic"
)

// Diagnostic, Severity, Position, Related and ErrorFormatter now live in
// internal/diagnostic so schematron and xmlsig can render the same
// rustc-style shape for their own failure kinds. These aliases keep the
// xsd package's own call sites (cmd/xsdvalidate, tests) unchanged.
type Diagnostic = diagnostic.Diagnostic
type Severity = diagnostic.Severity
type Position = diagnostic.Position
type Related = diagnostic.Related
type ErrorFormatter = diagnostic.ErrorFormatter

const (
	SeverityError   = diagnostic.SeverityError
	SeverityWarning = diagnostic.SeverityWarning
	SeverityInfo    = diagnostic.SeverityInfo
)

// DiagnosticConverter turns Violations produced by Validator/SchemaValidator
// into diagnostic.Diagnostic values, filling in the XSD-specific pieces
// (constraint-violation codes, source position from the xmldom.Element the
// violation fired on) that internal/diagnostic deliberately knows nothing
// about.
type DiagnosticConverter struct {
	fileName string
	conv     *diagnostic.Converter
}

// NewDiagnosticConverter creates a converter for one (file, source-text) pair.
func NewDiagnosticConverter(fileName, _ string) *DiagnosticConverter {
	return &DiagnosticConverter{
		fileName: fileName,
		conv:     diagnostic.NewConverter(fileName, diagnostic.SourceXSD),
	}
}

// Convert converts XSD violations to rustc-style diagnostics.
func (dc *DiagnosticConverter) Convert(violations []Violation) []Diagnostic {
	issues := make([]diagnostic.Issue, 0, len(violations))
	for _, v := range violations {
		xpath := v.XPath
		if xpath == "" {
			xpath = ElementXPath(v.Element)
		}
		issues = append(issues, diagnostic.Issue{
			Code:         v.Code,
			Message:      v.Message,
			Tag:          dc.getTag(v.Element),
			Attribute:    v.Attribute,
			Expected:     v.Expected,
			Actual:       v.Actual,
			Position:     dc.getPosition(v.Element, v.Attribute),
			ContextXPath: xpath,
		})
	}

	diags := dc.conv.Convert(issues)
	for i := range diags {
		diags[i].Hints = append(dc.generateHints(violations[i]), diags[i].Hints...)
	}
	return diags
}

// getPosition gets the position of an element or attribute.
func (dc *DiagnosticConverter) getPosition(elem xmldom.Element, attrName string) Position {
	if elem == nil {
		return Position{File: dc.fileName}
	}

	if attrName != "" {
		if attr := elem.GetAttributeNode(xmldom.DOMString(attrName)); attr != nil {
			line, col, offset := attr.Position()
			if line > 0 {
				return Position{File: dc.fileName, Line: line, Column: col, Offset: offset}
			}
		}
	}

	line, col, offset := elem.Position()
	return Position{File: dc.fileName, Line: line, Column: col, Offset: offset}
}

// getTag gets the tag name of an element.
func (dc *DiagnosticConverter) getTag(elem xmldom.Element) string {
	if elem == nil {
		return ""
	}
	return string(elem.LocalName())
}

// generateHints adds constraint-specific hints beyond the generic
// "Expected: ..." fallback internal/diagnostic already attaches.
func (dc *DiagnosticConverter) generateHints(v Violation) []string {
	var hints []string
	switch v.Code {
	case "cvc-id.1":
		hints = append(hints,
			"ensure an element with a matching id exists in the document",
			"IDs are case-sensitive")
	case "cvc-id.2":
		hints = append(hints, "each id attribute value must be unique within the document")
	case "cvc-complex-type.4":
		if len(v.Expected) == 1 {
			hints = append(hints, "add required attribute: "+v.Expected[0])
		}
	}
	return hints
}
