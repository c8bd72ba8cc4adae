package dom

import (
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Op names a side effect recorded in the journal.
type Op string

const (
	OpClick         Op = "click"
	OpCheck         Op = "check"
	OpSetValue      Op = "set-value"
	OpSetHTML       Op = "set-html"
	OpDispatch      Op = "dispatch"
	OpAddClass      Op = "add-class"
	OpEditorContent Op = "editor-content"
)

// Mutation is one replayable side effect. Target is a CSS path relative to
// Frame's document (or the editor id for OpEditorContent).
type Mutation struct {
	Op     Op     `json:"op"`
	Target string `json:"target"`
	Frame  string `json:"frame,omitempty"`
	Value  string `json:"value,omitempty"`
}

func (p *Page) record(op Op, sel *goquery.Selection, value string) {
	n := sel.Get(0)
	p.journal = append(p.journal, Mutation{
		Op:     op,
		Target: Path(n),
		Frame:  p.frameOf(n),
		Value:  value,
	})
}

// Click fires a simulated click on the first element of sel. The tree is not
// changed; default actions are left to whoever replays the journal.
func (p *Page) Click(sel *goquery.Selection) {
	if sel.Length() == 0 {
		return
	}
	p.record(OpClick, sel.First(), "")
}

// Check sets the checked state of a checkbox or radio. Checking a radio
// clears every other radio sharing its name, as a browser would.
func (p *Page) Check(sel *goquery.Selection) {
	if sel.Length() == 0 {
		return
	}
	control := sel.First()

	if IsRadio(control) {
		if name, ok := control.Attr("name"); ok && name != "" {
			owner := goquery.NewDocumentFromNode(treeRoot(control.Get(0))).Selection
			owner.Find(`input[type="radio"]`).Each(func(_ int, other *goquery.Selection) {
				otherName, _ := other.Attr("name")
				if otherName == name && other.Get(0) != control.Get(0) {
					other.RemoveAttr("checked")
				}
			})
		}
	}

	control.SetAttr("checked", "checked")
	p.record(OpCheck, control, "")
}

// SetValue assigns the raw value of a form control or editable element.
func (p *Page) SetValue(sel *goquery.Selection, value string) {
	if sel.Length() == 0 {
		return
	}
	el := sel.First()
	switch goquery.NodeName(el) {
	case "input":
		el.SetAttr("value", value)
	default:
		el.SetText(value)
	}
	p.record(OpSetValue, el, value)
}

// SetHTML replaces the children of sel with the parsed markup.
func (p *Page) SetHTML(sel *goquery.Selection, markup string) {
	if sel.Length() == 0 {
		return
	}
	el := sel.First()
	el.SetHtml(markup)
	p.record(OpSetHTML, el, markup)
}

// Dispatch records a synthetic DOM event of the given type.
func (p *Page) Dispatch(sel *goquery.Selection, event string) {
	if sel.Length() == 0 {
		return
	}
	p.record(OpDispatch, sel.First(), event)
}

// AddClass adds a CSS class to the first element of sel.
func (p *Page) AddClass(sel *goquery.Selection, class string) {
	if sel.Length() == 0 {
		return
	}
	el := sel.First()
	el.AddClass(class)
	p.record(OpAddClass, el, class)
}

// SetEditorContent pushes content through a registered editor instance.
func (p *Page) SetEditorContent(id, content string) error {
	if p.Editors == nil {
		return fmt.Errorf("editor %q: %w", id, ErrNotFound)
	}
	if err := p.Editors.SetContent(id, content); err != nil {
		return err
	}
	p.journal = append(p.journal, Mutation{Op: OpEditorContent, Target: id, Value: content})
	return nil
}

// Path returns a CSS selector that addresses n uniquely within its document.
func Path(n *html.Node) string {
	var parts []string
	for ; n != nil && n.Type == html.ElementNode; n = n.Parent {
		idx := 1
		for s := n.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode {
				idx++
			}
		}
		parts = append(parts, fmt.Sprintf("%s:nth-child(%d)", n.Data, idx))
	}
	slices.Reverse(parts)
	return strings.Join(parts, " > ")
}

func treeRoot(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}
