// Package editor writes a submission into the rich-text editor of a
// discussion or assignment page.
package editor

import (
	"strings"

	"lmsassist/dom"
	"lmsassist/scanner"

	"github.com/PuerkitoBio/goquery"
)

const (
	plainSurfaces = `textarea, [contenteditable="true"], [role="textbox"]`

	// minSurfaceHeight filters out one-line inputs such as search boxes.
	minSurfaceHeight = 50
)

// richSurfaces lists iframe-hosted editors, most specific first.
var richSurfaces = scanner.SelectorChain{
	`iframe[id$="_ifr"]`,
	`iframe.cke_wysiwyg_frame`,
	`iframe[title*="Rich Text"]`,
}

// Fill converts markup to HTML and writes it into the first iframe editor
// it finds, notifying the page with input and change events and pushing the
// same HTML through every registered editor instance. Without an iframe
// editor the raw markup goes into the largest plain text surface.
func Fill(p *dom.Page, markup string) dom.Outcome {
	root := p.Root()

	var body *goquery.Selection
	_, found := richSurfaces.Match(root, func(iframe *goquery.Selection) bool {
		frame, ok := p.Frame(iframe)
		if !ok {
			return false
		}
		body = frame.Find("body").First()
		return body.Length() > 0
	})
	if found {
		content := ToHTML(markup)
		p.SetHTML(body, content)
		p.Dispatch(body, "input")
		p.Dispatch(body, "change")

		// The iframe body already holds the content, so an instance that
		// rejects it is reported but does not fail the fill.
		var unsynced []string
		if p.Editors != nil {
			for _, id := range p.Editors.IDs() {
				if err := p.SetEditorContent(id, content); err != nil {
					unsynced = append(unsynced, id)
				}
			}
		}
		if len(unsynced) > 0 {
			return dom.Succeeded("editor filled; not synced: "+strings.Join(unsynced, ", "), "")
		}
		return dom.Succeeded("editor filled", "")
	}

	surface, ok := largestSurface(root)
	if !ok {
		return dom.Failed(dom.ErrNotFound)
	}
	p.SetValue(surface, markup)
	p.Dispatch(surface, "input")
	return dom.Succeeded("text area filled", "")
}

func largestSurface(root *goquery.Selection) (*goquery.Selection, bool) {
	var best *goquery.Selection
	bestHeight := minSurfaceHeight
	root.Find(plainSurfaces).Each(func(_ int, s *goquery.Selection) {
		if dom.Hidden(s) {
			return
		}
		if h := dom.RenderedHeight(s); h > bestHeight {
			best, bestHeight = s, h
		}
	})
	return best, best != nil
}
