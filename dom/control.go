package dom

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	lineHeightPx = 20
	defaultRows  = 2
)

// IsRadio reports whether sel is a radio input.
func IsRadio(sel *goquery.Selection) bool {
	return inputType(sel) == "radio"
}

// IsChecked reports whether a checkbox or radio carries the checked state.
func IsChecked(sel *goquery.Selection) bool {
	_, ok := sel.Attr("checked")
	return ok
}

// IsInputLike reports whether the element stores its text in a value
// rather than in child nodes.
func IsInputLike(sel *goquery.Selection) bool {
	switch goquery.NodeName(sel) {
	case "input", "textarea", "select":
		return true
	}
	return false
}

// Value returns what a user would read from the element: the value of an
// input, the contents of a textarea, and the text of anything else.
func Value(sel *goquery.Selection) string {
	switch goquery.NodeName(sel) {
	case "input":
		v, _ := sel.Attr("value")
		return v
	case "select":
		return sel.Find("option[selected]").First().Text()
	default:
		return sel.Text()
	}
}

// Hidden reports whether the element, or any ancestor, is hidden through
// the hidden attribute, a hidden input type or an inline display/visibility
// rule.
func Hidden(sel *goquery.Selection) bool {
	if inputType(sel) == "hidden" {
		return true
	}
	for cur := sel.First(); cur.Length() > 0; cur = cur.Parent() {
		if goquery.NodeName(cur) == "#document" {
			break
		}
		if _, ok := cur.Attr("hidden"); ok {
			return true
		}
		if v, ok := StyleProperty(cur, "display"); ok && v == "none" {
			return true
		}
		if v, ok := StyleProperty(cur, "visibility"); ok && v == "hidden" {
			return true
		}
	}
	return false
}

// HasInlineOpacity reports whether the element overrides its opacity inline.
func HasInlineOpacity(sel *goquery.Selection) bool {
	_, ok := StyleProperty(sel, "opacity")
	return ok
}

// StyleProperty reads one declaration from the inline style attribute.
func StyleProperty(sel *goquery.Selection, name string) (string, bool) {
	style, ok := sel.Attr("style")
	if !ok {
		return "", false
	}
	for _, decl := range strings.Split(style, ";") {
		key, value, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), name) {
			value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
			return strings.ToLower(value), true
		}
	}
	return "", false
}

// RenderedHeight estimates the on-screen height in pixels: an inline pixel
// height wins, otherwise rows times a nominal line height.
func RenderedHeight(sel *goquery.Selection) int {
	if v, ok := StyleProperty(sel, "height"); ok && strings.HasSuffix(v, "px") {
		if px, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil {
			return int(px)
		}
	}
	rows := defaultRows
	if v, ok := sel.Attr("rows"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			rows = n
		}
	}
	return rows * lineHeightPx
}

// LabelFor resolves the label describing a form control: an explicit
// label[for=id], then an enclosing label, then a following sibling label.
// The returned selection is empty when nothing applies.
func LabelFor(root, control *goquery.Selection) *goquery.Selection {
	if id, ok := control.Attr("id"); ok && id != "" {
		byFor := root.Find("label").FilterFunction(func(_ int, l *goquery.Selection) bool {
			f, _ := l.Attr("for")
			return f == id
		})
		if byFor.Length() > 0 {
			return byFor.First()
		}
	}
	if parent := control.Closest("label"); parent.Length() > 0 {
		return parent
	}
	return control.NextAllFiltered("label").First()
}

func inputType(sel *goquery.Selection) string {
	if goquery.NodeName(sel) != "input" {
		return ""
	}
	t, _ := sel.Attr("type")
	return strings.ToLower(strings.TrimSpace(t))
}
