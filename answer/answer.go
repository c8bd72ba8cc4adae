// Package answer finds the radio control for a chosen answer and selects it.
package answer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"lmsassist/dom"
	"lmsassist/scanner"

	"github.com/PuerkitoBio/goquery"
)

const radios = `input[type="radio"]`

// letterProbes are tried in order against the option letter.
var letterProbes = []string{
	`input[type="radio"][value*="%s"]`,
	`input[type="radio"][id*="%s"]`,
	`input[type="radio"][name*="%s"]`,
}

// Match is a control located for the current call only.
type Match struct {
	Control *goquery.Selection
	Label   string
}

// Select activates the radio whose label contains target. When no label
// matches, a leading option letter (A-D) is matched against the value, id
// and name of the radios. At most one control is activated per call.
func Select(p *dom.Page, target string) dom.Outcome {
	if strings.TrimSpace(target) == "" {
		return dom.Outcome{Message: "empty answer"}
	}

	root := p.Root()
	m, ok := scanner.Chain[Match]{
		func() (Match, bool) { return ByLabel(root, target) },
		func() (Match, bool) { return ByLetter(root, target) },
	}.First()
	if !ok {
		return dom.Failed(dom.ErrNotFound)
	}

	p.Click(m.Control)
	p.Check(m.Control)
	return dom.Succeeded("selected: "+m.Label, "")
}

// ByLabel returns the first radio whose resolved label contains target.
// The comparison is a case-sensitive substring test.
func ByLabel(root *goquery.Selection, target string) (Match, bool) {
	var m Match
	root.Find(radios).EachWithBreak(func(_ int, radio *goquery.Selection) bool {
		label := scanner.CleanText(dom.LabelFor(root, radio).Text())
		if label != "" && strings.Contains(label, target) {
			m = Match{Control: radio, Label: label}
			return false
		}
		return true
	})
	return m, m.Control != nil
}

// ByLetter matches the option letter that target starts with.
func ByLetter(root *goquery.Selection, target string) (Match, bool) {
	letter, ok := optionLetter(target)
	if !ok {
		return Match{}, false
	}

	chain := make(scanner.SelectorChain, 0, len(letterProbes))
	for _, probe := range letterProbes {
		chain = append(chain, strings.Replace(probe, "%s", letter, 1))
	}
	control, ok := chain.Match(root, nil)
	if !ok {
		return Match{}, false
	}
	return Match{Control: control, Label: letter}, true
}

func optionLetter(target string) (string, bool) {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(target))
	r = unicode.ToUpper(r)
	switch r {
	case 'A', 'B', 'C', 'D':
		return string(r), true
	}
	return "", false
}
