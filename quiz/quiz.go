// Package quiz extracts the current quiz question, its options and course
// metadata from an LMS quiz page.
package quiz

import (
	"regexp"
	"strings"

	"lmsassist/dom"
	"lmsassist/mathtext"
	"lmsassist/scanner"

	"github.com/PuerkitoBio/goquery"
)

// Record is one extraction of the page. It is rebuilt on every call because
// the host may re-render the quiz between requests.
type Record struct {
	QuestionText   string   `json:"questionText"`
	Options        []string `json:"options"`
	FormattedText  string   `json:"formattedText"`
	CourseCode     string   `json:"courseCode"`
	CourseName     string   `json:"courseName"`
	SelectedOption *string  `json:"selectedOption"`
}

const (
	questionSurfaces = `[id^="txtQuestion"], [name^="txtQuestion"]`
	optionSelector   = `table td table td span.expression, [name^="txtAnswer"]`
	choiceSelector   = `input[type="radio"][id^="radioChoice"]`
	choiceLabel      = `span.expression`

	// HighlightClass marks the label of the selected option.
	HighlightClass = "lms-assist-highlight"
)

var (
	courseLabels = scanner.SelectorChain{"#lblCourseCode", "#lblCourse", ".course-title"}

	coursePattern = regexp.MustCompile(`^([A-Z]{2,4}\d{3,4})\s*[-:]?\s*(.*)$`)
)

// Extract reads the quiz on p. ok is false when either the question text or
// the option list came up empty; QuestionText is then dom.NotFound.
func Extract(p *dom.Page) (rec Record, ok bool) {
	root := p.Root()

	rec.CourseCode, rec.CourseName = Course(root)
	rec.SelectedOption = SelectedOption(root)

	question := questionText(root)
	options := Options(root)
	if question == "" || len(options) == 0 {
		rec.QuestionText = dom.NotFound
		rec.Options = []string{}
		rec.FormattedText = dom.NotFound
		return rec, false
	}

	rec.QuestionText = question
	rec.Options = options
	rec.FormattedText = Format(question, options)
	return rec, true
}

// Format joins a question and its options with blank lines.
func Format(question string, options []string) string {
	return strings.Join(append([]string{question}, options...), "\n\n")
}

// questionText prefers a visible question surface; when several qualify the
// last one in document order wins.
func questionText(root *goquery.Selection) string {
	var text string
	root.Find(questionSurfaces).Each(func(_ int, s *goquery.Selection) {
		if dom.Hidden(s) || dom.HasInlineOpacity(s) {
			return
		}
		v := strings.TrimSpace(dom.Value(s))
		if v == "" {
			return
		}
		if !dom.IsInputLike(s) && mathtext.HasRenderedMath(s) {
			v = mathtext.Reconstruct(s)
		}
		text = v
	})
	if text != "" {
		return text
	}
	return wrapperText(root)
}

// questionWrapper finds the structural container of the question: the
// nested question cell, or else a table cell holding paragraphs.
func questionWrapper(root *goquery.Selection) (*goquery.Selection, bool) {
	return scanner.Chain[*goquery.Selection]{
		func() (*goquery.Selection, bool) {
			w := root.Find(`table td table td div[id^="divQuestion"]`).First()
			return w, w.Length() > 0
		},
		func() (*goquery.Selection, bool) {
			w := root.Find(`table td > p`).First().Parent()
			return w, w.Length() > 0
		},
	}.First()
}

func wrapperText(root *goquery.Selection) string {
	wrapper, ok := questionWrapper(root)
	if !ok || dom.Hidden(wrapper) {
		return ""
	}

	children := wrapper.Children()
	if children.Length() == 0 {
		return readable(wrapper)
	}

	var visible []*goquery.Selection
	math := false
	children.Each(func(_ int, child *goquery.Selection) {
		if !dom.Hidden(child) && scanner.CleanText(child.Text()) != "" {
			visible = append(visible, child)
			math = math || mathtext.HasRenderedMath(child)
		}
	})
	if len(visible) == 0 {
		return ""
	}

	first := visible[0]
	if !math || mathtext.HasRenderedMath(first) {
		return readable(first)
	}

	// Math outside the first child: read every visible child so hidden
	// siblings stay out and blocks keep a separator.
	parts := make([]string, 0, len(visible))
	for _, child := range visible {
		if t := readable(child); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// readable returns the cleaned text of sel with math reconstructed.
func readable(sel *goquery.Selection) string {
	if mathtext.HasRenderedMath(sel) {
		return mathtext.Reconstruct(sel)
	}
	return scanner.CleanText(sel.Text())
}

// Options returns the answer options in document order.
func Options(root *goquery.Selection) []string {
	options := []string{}
	root.Find(optionSelector).Each(func(_ int, s *goquery.Selection) {
		var text string
		switch {
		case dom.IsInputLike(s):
			text = strings.TrimSpace(dom.Value(s))
		case mathtext.HasRenderedMath(s):
			text = mathtext.Reconstruct(s)
		default:
			text = scanner.CleanText(s.Text())
		}
		if text != "" {
			options = append(options, text)
		}
	})
	return options
}

// Course splits the course label into code and name. A label that does not
// start with a course code is returned as both.
func Course(root *goquery.Selection) (code, name string) {
	label, ok := courseLabels.Match(root, func(s *goquery.Selection) bool {
		return scanner.CleanText(s.Text()) != ""
	})
	if !ok {
		return "", ""
	}

	raw := scanner.CleanText(label.Text())
	m := coursePattern.FindStringSubmatch(raw)
	if m == nil {
		return raw, raw
	}
	name = strings.TrimSpace(m[2])
	if name == "" {
		name = raw
	}
	return m[1], name
}

// SelectedOption returns the label of the checked choice, or nil.
func SelectedOption(root *goquery.Selection) *string {
	label := selectedLabel(root)
	if label == nil {
		return nil
	}
	text := scanner.CleanText(label.Text())
	if mathtext.HasRenderedMath(label) {
		text = mathtext.Reconstruct(label)
	}
	return &text
}

// Highlight marks the label of the checked choice. It reports false when no
// choice is checked.
func Highlight(p *dom.Page) bool {
	label := selectedLabel(p.Root())
	if label == nil {
		return false
	}
	p.AddClass(label, HighlightClass)
	return true
}

func selectedLabel(root *goquery.Selection) *goquery.Selection {
	var label *goquery.Selection
	root.Find(choiceSelector).EachWithBreak(func(_ int, choice *goquery.Selection) bool {
		if !dom.IsChecked(choice) {
			return true
		}
		cell := choice.Closest("td").Next()
		if l := cell.Find(choiceLabel).First(); l.Length() > 0 {
			label = l
			return false
		}
		return true
	})
	return label
}
