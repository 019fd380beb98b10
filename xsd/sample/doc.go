package sample

import (
	"golang.org/x/text/language"

	"github.com/freexmltoolkit/xmlkit"
)

// PreferredDocumentation picks the best-matching text out of a folded
// Documentation for a requested language tag, falling back to the primary
// text when no alternate matches (or none was requested). This backs the
// "doc-driven generation hints" §9 Open Question note on reusing the
// box-per-node documentation model: a caller generating samples for a
// particular locale can surface the matching xml:lang annotation alongside
// the generated value instead of always seeing the primary text.
func PreferredDocumentation(doc xsd.Documentation, want string) string {
	if want == "" || len(doc.Alternates) == 0 {
		return doc.Primary
	}

	tags := make([]language.Tag, 0, len(doc.Alternates)+1)
	keys := make([]string, 0, len(doc.Alternates)+1)
	for lang := range doc.Alternates {
		tag, err := language.Parse(lang)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		keys = append(keys, lang)
	}
	if len(tags) == 0 {
		return doc.Primary
	}

	wantTag, err := language.Parse(want)
	if err != nil {
		return doc.Primary
	}

	matcher := language.NewMatcher(tags)
	_, index, confidence := matcher.Match(wantTag)
	if confidence == language.No {
		return doc.Primary
	}
	return doc.Alternates[keys[index]]
}
