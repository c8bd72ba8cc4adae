// Package completion marks an LMS lesson as viewed.
package completion

import (
	"strings"

	"lmsassist/dom"
	"lmsassist/scanner"

	"github.com/PuerkitoBio/goquery"
)

const (
	// lessonMarker identifies the lesson viewer in the page URL.
	lessonMarker = "lessonviewer"

	// nextAction tells the caller to reload so the LMS picks up the change.
	nextAction = "reload"

	actionables = `button, input[type="button"], input[type="submit"], a.btn, a[role="button"]`
)

var (
	keywords = []string{"complete", "viewed", "done"}

	phrases = []string{
		"mark as complete",
		"mark as completed",
		"mark as viewed",
		"mark complete",
		"complete lesson",
		"i have viewed this lesson",
	}

	hostControls = scanner.SelectorChain{
		"#btnMarkComplete",
		"#MainContent_btnComplete",
		`[data-action="mark-complete"]`,
		".mark-complete",
	}
)

// Mark tries, in order, a completion checkbox, a button labelled with a
// completion phrase, and the LMS's own completion controls. Outside the
// lesson viewer nothing is touched.
func Mark(p *dom.Page) dom.Outcome {
	if !strings.Contains(strings.ToLower(p.Location()), lessonMarker) {
		return dom.Failed(dom.ErrWrongPage)
	}

	root := p.Root()
	out, ok := scanner.Chain[dom.Outcome]{
		func() (dom.Outcome, bool) { return byCheckbox(p, root) },
		func() (dom.Outcome, bool) { return byPhrase(p, root) },
		func() (dom.Outcome, bool) { return byHostControl(p, root) },
	}.First()
	if !ok {
		return dom.Failed(dom.ErrNotFound)
	}
	return out
}

func byCheckbox(p *dom.Page, root *goquery.Selection) (dom.Outcome, bool) {
	var box *goquery.Selection
	root.Find(`input[type="checkbox"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("id")
		name, _ := s.Attr("name")
		label := dom.LabelFor(root, s).Text()
		if containsAny(strings.ToLower(label+" "+id+" "+name), keywords) {
			box = s
			return false
		}
		return true
	})
	if box == nil {
		return dom.Outcome{}, false
	}

	if dom.IsChecked(box) {
		return dom.Succeeded("already complete", nextAction), true
	}
	p.Click(box)
	p.Check(box)
	return dom.Succeeded("marked", nextAction), true
}

func byPhrase(p *dom.Page, root *goquery.Selection) (dom.Outcome, bool) {
	var hit *goquery.Selection
	root.Find(actionables).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if dom.Hidden(s) {
			return true
		}
		text := s.Text()
		if goquery.NodeName(s) == "input" {
			text, _ = s.Attr("value")
		}
		if containsAny(strings.ToLower(scanner.CleanText(text)), phrases) {
			hit = s
			return false
		}
		return true
	})
	if hit == nil {
		return dom.Outcome{}, false
	}
	p.Click(hit)
	return dom.Succeeded("marked", nextAction), true
}

func byHostControl(p *dom.Page, root *goquery.Selection) (dom.Outcome, bool) {
	control, ok := hostControls.Match(root, nil)
	if !ok {
		return dom.Outcome{}, false
	}
	p.Click(control)
	return dom.Succeeded("marked", nextAction), true
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
