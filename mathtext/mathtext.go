// Package mathtext turns typeset math (MathJax, KaTeX) back into delimited
// TeX source so that extracted question text stays readable.
package mathtext

import (
	"regexp"
	"strings"

	"lmsassist/scanner"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var delimiters = []*regexp.Regexp{
	regexp.MustCompile(`^\$[\s\S]+\$$`),
	regexp.MustCompile(`^\\\([\s\S]+\\\)$`),
	regexp.MustCompile(`^\$\$[\s\S]+\$\$$`),
	regexp.MustCompile(`^\\\[[\s\S]+\\\]$`),
}

const (
	// indicators mark an element that carries typeset math.
	indicators = `.MathJax, .MathJax_Preview, .MathJax_Display, .MathJax_SVG, .MathJax_CHTML, mjx-container, .katex, script[type^="math/tex"]`

	sources   = `script[type^="math/tex"], annotation[encoding="application/x-tex"]`
	holders   = `.katex, mjx-container`
	assistive = `mjx-container`
	helpers   = `.MathJax_Preview, .MathJax, .MathJax_Display, .MathJax_SVG, .MathJax_CHTML, .MJX_Assistive_MathML, mjx-container, .katex-html, .katex-mathml`
)

// IsDelimited reports whether s is wrapped in $…$, \(…\), $$…$$ or \[…\].
func IsDelimited(s string) bool {
	s = strings.TrimSpace(s)
	for _, re := range delimiters {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Delimit returns s trimmed, wrapped in \[…\] unless it is already
// delimited.
func Delimit(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || IsDelimited(s) {
		return s
	}
	return `\[` + s + `\]`
}

// HasRenderedMath reports whether sel is, or contains, typeset math.
func HasRenderedMath(sel *goquery.Selection) bool {
	return sel.Is(indicators) || sel.Find(indicators).Length() > 0
}

// Reconstruct returns the plain text of sel with every embedded math payload
// replaced by its delimited source. The work happens on a clone; the live
// tree is never touched.
func Reconstruct(sel *goquery.Selection) string {
	box := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range sel.Clone().Nodes {
		box.AppendChild(n)
	}
	clone := goquery.NewDocumentFromNode(box).Selection

	clone.Find(sources).Each(func(_ int, src *goquery.Selection) {
		target := src
		if holder := src.Closest(holders); holder.Length() > 0 {
			target = holder
		}
		// An earlier source may already have replaced this holder.
		if target.Get(0).Parent == nil {
			return
		}
		target.ReplaceWithNodes(textNode(Delimit(src.Text())))
	})

	// MathJax 3 keeps no TeX source; fall back to the assistive MathML text.
	clone.Find(assistive).Each(func(_ int, c *goquery.Selection) {
		if tex := strings.TrimSpace(c.Find("mjx-assistive-mml").Text()); tex != "" {
			c.ReplaceWithNodes(textNode(Delimit(tex)))
		}
	})

	clone.Find(helpers).Remove()
	clone.Find("script, style").Remove()
	return scanner.CleanText(clone.Text())
}

// ReconstructText applies Reconstruct to plain text. Text carries no
// typeset nodes, so the result is the cleaned text itself; this is what
// makes reconstruction idempotent.
func ReconstructText(text string) string {
	box := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	box.AppendChild(textNode(text))
	return Reconstruct(goquery.NewDocumentFromNode(box).Selection)
}

// ReconstructHTML parses an HTML fragment and reconstructs it.
func ReconstructHTML(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	return Reconstruct(doc.Find("body")), nil
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
