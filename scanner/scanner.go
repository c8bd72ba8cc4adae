// Package scanner locates content in a document by trying lookups in a
// fixed order and keeping the first one that produces something usable.
package scanner

import (
	"strings"
	"unicode/utf8"

	"lmsassist/dom"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Chain is an ordered list of probes. The first probe that reports a hit
// wins; later probes are never run.
type Chain[T any] []func() (T, bool)

// First runs the probes in order and returns the first hit.
func (c Chain[T]) First() (T, bool) {
	for _, probe := range c {
		if v, ok := probe(); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// SelectorChain is an ordered list of CSS selectors.
type SelectorChain []string

// Match returns the first element, in chain order and then document order,
// that keep accepts. A nil keep accepts any element.
func (c SelectorChain) Match(root *goquery.Selection, keep func(*goquery.Selection) bool) (*goquery.Selection, bool) {
	chain := make(Chain[*goquery.Selection], 0, len(c))
	for _, selector := range c {
		chain = append(chain, func() (*goquery.Selection, bool) {
			var hit *goquery.Selection
			root.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				if keep == nil || keep(s) {
					hit = s
					return false
				}
				return true
			})
			return hit, hit != nil
		})
	}
	return chain.First()
}

// Query configures a Scan.
type Query struct {
	Selectors SelectorChain
	MinLength int // chain matches must be strictly longer than this

	// Line fallback: first line containing a keyword within [MinLine, MaxLine].
	Keywords []string
	MinLine  int
	MaxLine  int
}

// Scan returns the trimmed text of the first chain match longer than
// MinLength. Failing that it scans every text line of root for a keyword
// line inside the length window, and finally returns dom.NotFound.
func Scan(root *goquery.Selection, q Query) string {
	var text string
	_, ok := q.Selectors.Match(root, func(s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(t) > q.MinLength {
			text = t
			return true
		}
		return false
	})
	if ok {
		return text
	}

	if line, ok := scanLines(root, q); ok {
		return line
	}
	return dom.NotFound
}

func scanLines(root *goquery.Selection, q Query) (string, bool) {
	if len(q.Keywords) == 0 {
		return "", false
	}

	for _, line := range strings.Split(Lines(root), "\n") {
		line = strings.TrimSpace(line)
		n := utf8.RuneCountInString(line)
		if n < q.MinLine || (q.MaxLine > 0 && n > q.MaxLine) {
			continue
		}
		for _, kw := range q.Keywords {
			if strings.Contains(line, kw) {
				return line, true
			}
		}
	}
	return "", false
}

// blocks are the elements that start a new line of rendered text.
var blocks = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "details": true, "dialog": true, "div": true, "dl": true,
	"dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "summary": true, "table": true,
	"tr": true, "ul": true, "body": true, "html": true,
}

// skipped elements never contribute text.
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

// Lines renders the text of root with a line break around every block
// element and at each br, the way a browser lays out innerText.
func Lines(root *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipped[n.Data] {
				return
			}
			if n.Data == "br" {
				b.WriteByte('\n')
				return
			}
		}
		block := n.Type == html.ElementNode && blocks[n.Data]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	for _, n := range root.Nodes {
		walk(n)
	}
	return b.String()
}

// CleanText collapses runs of whitespace into single spaces.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
