// Package dom holds the document tree every extraction and action runs
// against. A Page is built from an HTML snapshot of the host LMS page and
// records each side effect it performs so a live browser can replay them.
package dom

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Snapshot is the serialized form of a page as captured by a browser or
// posted by the extension.
type Snapshot struct {
	URL     string            `json:"url"`
	HTML    string            `json:"html"`
	Frames  map[string]string `json:"frames,omitempty"`  // iframe id or name -> inner document HTML
	Editors []string          `json:"editors,omitempty"` // ids of registered rich-text editor instances
}

// Page is one call-scoped view of the host document.
type Page struct {
	URL     *url.URL
	Doc     *goquery.Document
	Editors EditorRegistry

	frames  map[string]*goquery.Document
	journal []Mutation
}

// Parse builds a Page from a snapshot.
func Parse(s Snapshot) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	p := &Page{
		Doc:    doc,
		frames: make(map[string]*goquery.Document, len(s.Frames)),
	}

	if s.URL != "" {
		u, err := url.Parse(s.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid page URL: %w", err)
		}
		p.URL = u
		doc.Url = u
	}

	for key, frameHTML := range s.Frames {
		frame, err := goquery.NewDocumentFromReader(strings.NewReader(frameHTML))
		if err != nil {
			return nil, fmt.Errorf("failed to parse frame %q: %w", key, err)
		}
		p.frames[key] = frame
	}

	if len(s.Editors) > 0 {
		editors := make(MemoryEditors, len(s.Editors))
		for _, id := range s.Editors {
			editors[id] = ""
		}
		p.Editors = editors
	}

	return p, nil
}

// Root returns the top-level document selection.
func (p *Page) Root() *goquery.Selection {
	return p.Doc.Selection
}

// Location returns the page URL as a string, or "" when unknown.
func (p *Page) Location() string {
	if p.URL == nil {
		return ""
	}
	return p.URL.String()
}

// Frame returns the inner document of an iframe element. Frames captured in
// the snapshot are looked up by the iframe's id, then its name; an inline
// srcdoc is parsed on first access.
func (p *Page) Frame(iframe *goquery.Selection) (*goquery.Document, bool) {
	key := frameKey(iframe)
	if key == "" {
		return nil, false
	}
	if doc, ok := p.frames[key]; ok {
		return doc, true
	}

	srcdoc, ok := iframe.Attr("srcdoc")
	if !ok {
		return nil, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(srcdoc))
	if err != nil {
		return nil, false
	}
	p.frames[key] = doc
	return doc, true
}

// Journal returns the mutations applied so far, in order.
func (p *Page) Journal() []Mutation {
	out := make([]Mutation, len(p.journal))
	copy(out, p.journal)
	return out
}

func frameKey(iframe *goquery.Selection) string {
	if id, ok := iframe.Attr("id"); ok && id != "" {
		return id
	}
	name, _ := iframe.Attr("name")
	return name
}

// frameOf reports which captured frame a node belongs to; "" is the top
// document.
func (p *Page) frameOf(n *html.Node) string {
	root := n
	for root.Parent != nil {
		root = root.Parent
	}
	for key, doc := range p.frames {
		if len(doc.Nodes) > 0 && doc.Nodes[0] == root {
			return key
		}
	}
	return ""
}
