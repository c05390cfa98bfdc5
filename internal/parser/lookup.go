package parser

import (
	"strings"

	"github.com/beevik/etree"
)

// lookupStrategy returns every descendant of parent matching name.
type lookupStrategy func(parent *etree.Element, name string, includeSelf bool) []*etree.Element

// strategies are tried in order; the first non-empty result wins. Exports in
// the wild declare the namespace inconsistently, so each tier is more lenient
// than the previous one.
var strategies = []lookupStrategy{
	byNamespace,
	byLocalName,
	byRawTag,
}

// findAll applies the strategy chain below parent.
func findAll(parent *etree.Element, name string) []*etree.Element {
	return chain(parent, name, false)
}

// findFirst returns the first element findAll would return, or nil.
func findFirst(parent *etree.Element, name string) *etree.Element {
	if found := findAll(parent, name); len(found) > 0 {
		return found[0]
	}
	return nil
}

// findInDocument searches the whole document, root included.
func findInDocument(doc *etree.Document, name string) *etree.Element {
	root := doc.Root()
	if root == nil {
		return nil
	}
	if found := chain(root, name, true); len(found) > 0 {
		return found[0]
	}
	return nil
}

func chain(parent *etree.Element, name string, includeSelf bool) []*etree.Element {
	if parent == nil {
		return nil
	}
	for _, strategy := range strategies {
		if found := strategy(parent, name, includeSelf); len(found) > 0 {
			return found
		}
	}
	return nil
}

func byNamespace(parent *etree.Element, name string, includeSelf bool) []*etree.Element {
	return collect(parent, includeSelf, func(e *etree.Element) bool {
		return e.Tag == name && e.NamespaceURI() == Namespace
	})
}

func byLocalName(parent *etree.Element, name string, includeSelf bool) []*etree.Element {
	return collect(parent, includeSelf, func(e *etree.Element) bool {
		return e.Tag == name
	})
}

func byRawTag(parent *etree.Element, name string, includeSelf bool) []*etree.Element {
	return collect(parent, includeSelf, func(e *etree.Element) bool {
		return strings.EqualFold(e.FullTag(), name) || strings.EqualFold(e.Tag, name)
	})
}

// collect walks parent's subtree in document order.
func collect(parent *etree.Element, includeSelf bool, match func(*etree.Element) bool) []*etree.Element {
	var out []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, child := range e.ChildElements() {
			if match(child) {
				out = append(out, child)
			}
			walk(child)
		}
	}
	if includeSelf && match(parent) {
		out = append(out, parent)
	}
	walk(parent)
	return out
}

// textOf returns the trimmed text of the first matching descendant.
func textOf(parent *etree.Element, name string) (string, bool) {
	e := findFirst(parent, name)
	if e == nil {
		return "", false
	}
	text := strings.TrimSpace(e.Text())
	return text, text != ""
}
