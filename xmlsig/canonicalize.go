package xmlsig

import (
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// canonicalize applies exclusive XML canonicalization (exc-c14n, no
// comments) to el, returning the canonical byte form used both for
// reference digesting and for SignedInfo signing. Grounded on
// adrianodrix-sped-nfe-go's certificate.XMLCanonicalizer: sort namespace
// declarations before regular attributes, drop namespace declarations the
// subtree never uses (the "exclusive" part), then sort regular attributes
// by namespace URI then local name, recursing into every child element.
func canonicalize(el *etree.Element) []byte {
	clone := el.Copy()
	canonicalizeElement(clone)

	doc := etree.NewDocument()
	doc.SetRoot(clone)
	doc.WriteSettings.CanonicalEndTags = true
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true

	out, _ := doc.WriteToBytes()
	return out
}

func canonicalizeElement(el *etree.Element) {
	removeUnusedNamespaces(el)
	sortAttrs(el)
	normalizeChildren(el)
	for _, child := range el.ChildElements() {
		canonicalizeElement(child)
	}
}

func sortAttrs(el *etree.Element) {
	if len(el.Attr) <= 1 {
		return
	}
	var ns, regular []etree.Attr
	for _, a := range el.Attr {
		if a.Space == "xmlns" || a.Key == "xmlns" {
			ns = append(ns, a)
		} else {
			regular = append(regular, a)
		}
	}
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Key == "xmlns" {
			return ns[j].Key != "xmlns"
		}
		if ns[j].Key == "xmlns" {
			return false
		}
		return ns[i].Key < ns[j].Key
	})
	sort.Slice(regular, func(i, j int) bool {
		if regular[i].Space != regular[j].Space {
			return regular[i].Space < regular[j].Space
		}
		return regular[i].Key < regular[j].Key
	})
	el.Attr = append(append([]etree.Attr{}, ns...), regular...)
}

// removeUnusedNamespaces drops xmlns declarations whose prefix/URI is
// never referenced by this element or a descendant — exc-c14n's defining
// difference from the inclusive form.
func removeUnusedNamespaces(el *etree.Element) {
	used := map[string]bool{}
	collectUsedNamespaces(el, used)

	var kept []etree.Attr
	for _, a := range el.Attr {
		switch {
		case a.Space == "xmlns":
			if used[a.Key] {
				kept = append(kept, a)
			}
		case a.Key == "xmlns":
			if used[""] {
				kept = append(kept, a)
			}
		default:
			kept = append(kept, a)
		}
	}
	el.Attr = kept
}

func collectUsedNamespaces(el *etree.Element, used map[string]bool) {
	if el.Space != "" {
		used[el.Space] = true
	}
	for _, a := range el.Attr {
		if a.Space != "" && a.Space != "xmlns" {
			used[a.Space] = true
		}
	}
	for _, c := range el.ChildElements() {
		collectUsedNamespaces(c, used)
	}
}

// normalizeChildren drops comments and folds CRLF/CR line endings in text
// nodes to LF, per C14N's text-node normalization rule.
func normalizeChildren(el *etree.Element) {
	var kept []etree.Token
	for _, t := range el.Child {
		switch n := t.(type) {
		case *etree.Comment:
			continue
		case *etree.CharData:
			n.Data = normalizeLineEndings(n.Data)
		}
		kept = append(kept, t)
	}
	el.Child = kept
}

// normalizeLineEndings folds CRLF/CR into LF per C14N's text-node rule.
func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
