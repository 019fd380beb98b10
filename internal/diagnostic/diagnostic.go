// Package diagnostic implements the rustc-style Diagnostic/Position/Related
// shape the root xsd package's diagnostic.go used for XSD-only validation
// errors, lifted here and generalized so schematron and xmlsig can emit the
// same shape for their own failure kinds. It intentionally knows nothing
// about xsd.Violation or xmldom.Element: callers convert their own
// violation/failure types into an Issue first, so this package never needs
// to import xsd (which would import it back, for xsd's own conversion).
package diagnostic

import (
	"fmt"
	"strings"
)

// Severity mirrors spec.md §3's ValidationError.severity enum.
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warn"
	SeverityInfo    Severity = "info"
)

// Position is source-location information for a node or attribute.
type Position struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int64  `json:"offset"`
}

// Related points at a related source location (e.g. the first definition
// of a duplicate ID).
type Related struct {
	Label    string   `json:"label"`
	Position Position `json:"position"`
}

// Source names which engine produced a Diagnostic, matching spec.md §3's
// ValidationError.source enum.
type Source string

const (
	SourceXSD        Source = "xsd"
	SourceSchematron Source = "schematron"
	SourceWellformed Source = "wellformed"
	SourceSignature  Source = "signature"
	SourceJSON       Source = "json"
)

// Diagnostic is the rustc-style validation diagnostic every engine in this
// module renders through.
type Diagnostic struct {
	Severity     Severity  `json:"severity"`
	Source       Source    `json:"source"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	Position     Position  `json:"position"`
	Tag          string    `json:"tag,omitempty"`
	Attribute    string    `json:"attribute,omitempty"`
	RuleID       string    `json:"rule_id,omitempty"`
	ContextXPath string    `json:"context_xpath,omitempty"`
	Hints        []string  `json:"hints,omitempty"`
	Related      []Related `json:"related,omitempty"`
}

// ValidationError is spec.md §3's wire shape: the subset of Diagnostic a
// caller across a package boundary actually needs.
type ValidationError struct {
	File         string   `json:"file,omitempty"`
	Line         int      `json:"line,omitempty"`
	Column       int      `json:"column,omitempty"`
	Message      string   `json:"message"`
	Severity     Severity `json:"severity"`
	Source       Source   `json:"source"`
	RuleID       string   `json:"rule_id,omitempty"`
	ContextXPath string   `json:"context_xpath,omitempty"`
}

// ToValidationError narrows a Diagnostic to the wire shape.
func (d Diagnostic) ToValidationError() ValidationError {
	return ValidationError{
		File:         d.Position.File,
		Line:         d.Position.Line,
		Column:       d.Position.Column,
		Message:      d.Message,
		Severity:     d.Severity,
		Source:       d.Source,
		RuleID:       d.RuleID,
		ContextXPath: d.ContextXPath,
	}
}

// Issue is the generic, engine-agnostic input to a Converter: whatever an
// engine's own violation/failure type holds, translated into this shape
// before conversion.
type Issue struct {
	Code         string
	Message      string
	Tag          string
	Attribute    string
	Expected     []string
	Actual       string
	Position     Position
	ContextXPath string
}

// Converter turns a batch of Issues from one source into Diagnostics,
// attaching a fallback hint when none is generated ("Expected: a, b").
type Converter struct {
	FileName string
	Source   Source
}

// NewConverter creates a Converter for one file and one engine source.
func NewConverter(fileName string, source Source) *Converter {
	return &Converter{FileName: fileName, Source: source}
}

// Convert maps each Issue to a Diagnostic.
func (c *Converter) Convert(issues []Issue) []Diagnostic {
	diags := make([]Diagnostic, 0, len(issues))
	for _, iss := range issues {
		pos := iss.Position
		if pos.File == "" {
			pos.File = c.FileName
		}
		d := Diagnostic{
			Severity:     SeverityError,
			Source:       c.Source,
			Code:         iss.Code,
			Message:      iss.Message,
			Position:     pos,
			Tag:          iss.Tag,
			Attribute:    iss.Attribute,
			ContextXPath: iss.ContextXPath,
		}
		if len(iss.Expected) > 0 {
			d.Hints = []string{fmt.Sprintf("Expected: %s", strings.Join(iss.Expected, ", "))}
		}
		diags = append(diags, d)
	}
	return diags
}

// ErrorFormatter renders a Diagnostic in rustc's gutter style.
type ErrorFormatter struct {
	Color bool
}

// Format renders one diagnostic against its originating source text.
func (ef *ErrorFormatter) Format(diag Diagnostic, source string) string {
	var sb strings.Builder

	severity := string(diag.Severity)
	if ef.Color {
		switch diag.Severity {
		case SeverityError, SeverityFatal:
			severity = "\033[31;1m" + severity + "\033[0m"
		case SeverityWarning:
			severity = "\033[33;1m" + severity + "\033[0m"
		case SeverityInfo:
			severity = "\033[36;1m" + severity + "\033[0m"
		}
	}

	code := diag.Code
	if diag.RuleID != "" {
		code = diag.RuleID
	}
	sb.WriteString(fmt.Sprintf("%s[%s]: %s\n", severity, code, diag.Message))
	sb.WriteString(fmt.Sprintf(" --> %s:%d:%d\n", diag.Position.File, diag.Position.Line, diag.Position.Column))

	if diag.ContextXPath != "" {
		sb.WriteString("     = context: " + diag.ContextXPath + "\n")
	}

	if source != "" && diag.Position.Line > 0 {
		lines := strings.Split(source, "\n")
		if diag.Position.Line <= len(lines) {
			sb.WriteString(fmt.Sprintf("%4d | ", diag.Position.Line))
			sb.WriteString(lines[diag.Position.Line-1] + "\n")
			sb.WriteString("     | ")
			if diag.Position.Column > 0 {
				sb.WriteString(strings.Repeat(" ", diag.Position.Column-1) + "^\n")
			}
		}
	}

	for _, hint := range diag.Hints {
		sb.WriteString("     = help: " + hint + "\n")
	}
	for _, rel := range diag.Related {
		sb.WriteString(fmt.Sprintf("     %s\n      --> %s:%d:%d\n",
			rel.Label, rel.Position.File, rel.Position.Line, rel.Position.Column))
	}

	return sb.String()
}
