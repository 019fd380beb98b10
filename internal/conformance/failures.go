package conformance

import (
	"fmt"
	"sort"
	"strings"
)

// FailureCategory groups failed Results under a named feature area,
// generalizing the teacher's XSD-only FailureCategory to span all four
// engines this module exercises.
type FailureCategory struct {
	Name        string
	Description string
	Count       int
	Examples    []Result
}

// AnalyzeFailures buckets failed results by feature area, inferred from
// case/group names and kind, the same name-sniffing approach the
// teacher's AnalyzeTestFailures used for the W3C suite.
func AnalyzeFailures(results []Result) map[string]*FailureCategory {
	cats := newCategories()
	for _, result := range results {
		if !result.Passed {
			categorize(result, cats)
		}
	}
	return cats
}

func newCategories() map[string]*FailureCategory {
	return map[string]*FailureCategory{
		"facet-validation":   {Name: "Facet Validation", Description: "pattern, length, enumeration and other facet constraints"},
		"type-validation":    {Name: "Built-in Type Validation", Description: "built-in XSD simple types (int, date, boolean, etc.)"},
		"namespace":          {Name: "Namespace Handling", Description: "namespace resolution and qualification"},
		"identity-constraint": {Name: "Identity Constraints", Description: "key, keyref, unique"},
		"content-model":      {Name: "Content Model", Description: "sequence/choice/all particle validation"},
		"schematron-rule":    {Name: "Schematron Assertions", Description: "rule/assert/report failures"},
		"signature-digest":   {Name: "Signature Digest", Description: "reference digest mismatches"},
		"signature-crypto":   {Name: "Signature Cryptography", Description: "SignatureValue verification failures"},
		"json-schema-rule":   {Name: "JSON Schema Keywords", Description: "required/type/enum and other JSON Schema keyword failures"},
		"json-syntax":        {Name: "JSON Syntax", Description: "JSON/JSONC/JSON5 well-formedness failures"},
		"other":              {Name: "Other/Unknown", Description: "uncategorized failures"},
	}
}

func categorize(result Result, cats map[string]*FailureCategory) {
	path := strings.ToLower(result.Group + "/" + result.Name)
	category := "other"

	switch {
	case result.Kind == "signature":
		if result.Err != nil && strings.Contains(strings.ToLower(result.Err.Error()), "digest") {
			category = "signature-digest"
		} else {
			category = "signature-crypto"
		}
	case result.Kind == "schematron":
		category = "schematron-rule"
	case result.Kind == "json-wellformed":
		category = "json-syntax"
	case result.Kind == "json-schema":
		category = "json-schema-rule"
	case strings.Contains(path, "identity") || strings.Contains(path, "keyref") || strings.Contains(path, "unique"):
		category = "identity-constraint"
	case strings.Contains(path, "pattern") || strings.Contains(path, "facet") || strings.Contains(path, "enum") || strings.Contains(path, "length"):
		category = "facet-validation"
	case strings.Contains(path, "namespace") || strings.Contains(path, "qualified"):
		category = "namespace"
	case strings.Contains(path, "sequence") || strings.Contains(path, "choice") || strings.Contains(path, "particle"):
		category = "content-model"
	case strings.Contains(path, "type") || strings.Contains(path, "datatype"):
		category = "type-validation"
	}

	cat := cats[category]
	cat.Count++
	if len(cat.Examples) < 5 {
		cat.Examples = append(cat.Examples, result)
	}
}

// GenerateFailureReport renders categorized failures, most frequent first.
func GenerateFailureReport(cats map[string]*FailureCategory) string {
	type entry struct {
		key string
		cat *FailureCategory
	}
	var sorted []entry
	total := 0
	for k, v := range cats {
		if v.Count > 0 {
			sorted = append(sorted, entry{k, v})
			total += v.Count
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].cat.Count > sorted[j].cat.Count })

	var b strings.Builder
	b.WriteString("Conformance Failure Analysis\n")
	b.WriteString("============================\n\n")
	if total == 0 {
		b.WriteString("No failures.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Total Failures: %d\n\n", total)

	for _, e := range sorted {
		fmt.Fprintf(&b, "%s: %d (%.1f%%)\n  %s\n", e.cat.Name, e.cat.Count, pct(e.cat.Count, total), e.cat.Description)
		for i, ex := range e.cat.Examples {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "    - %s/%s (expected=%s actual=%s)\n", ex.Group, ex.Name, ex.Expected, ex.Actual)
		}
		b.WriteString("\n")
	}
	return b.String()
}
