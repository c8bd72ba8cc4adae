package editor

import (
	"regexp"
	"strings"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// List items are tagged with a marker byte so that runs can be wrapped in
// the right container after the inline rules ran.
const (
	ulMark = "\x01"
	olMark = "\x02"
)

// rules is applied top to bottom.
var rules = []rule{
	{regexp.MustCompile(`(?m)^###[ \t]+(.+?)[ \t]*$`), `<h3>$1</h3>`},
	{regexp.MustCompile(`(?m)^##[ \t]+(.+?)[ \t]*$`), `<h2>$1</h2>`},
	{regexp.MustCompile(`(?m)^#[ \t]+(.+?)[ \t]*$`), `<h1>$1</h1>`},
	{regexp.MustCompile(`\*\*(\S(?:.*?\S)?)\*\*`), `<strong>$1</strong>`},
	{regexp.MustCompile(`__(\S(?:.*?\S)?)__`), `<strong>$1</strong>`},
	{regexp.MustCompile(`\*(\S(?:[^*\n]*?\S)?)\*`), `<em>$1</em>`},
	{regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+(.+)$`), ulMark + `<li>$1</li>`},
	{regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+(.+)$`), olMark + `<li>$1</li>`},
	{regexp.MustCompile("`([^`\n]+)`"), `<code>$1</code>`},
	{regexp.MustCompile(`\[([^\]\n]+)\]\(([^)\s]+)\)`), `<a href="$2">$1</a>`},
}

var (
	escaper    = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	blockEnd   = regexp.MustCompile(`(</h[1-3]>|</ul>|</ol>)\n+`)
	paragraphs = regexp.MustCompile(`\n{2,}`)
)

// ToHTML converts lightweight markup (headings, emphasis, lists, inline
// code, links and paragraphs) into the HTML subset the LMS editor accepts.
func ToHTML(markup string) string {
	s := strings.ReplaceAll(markup, "\r\n", "\n")
	s = escaper.Replace(strings.TrimSpace(s))

	for _, r := range rules {
		s = r.re.ReplaceAllString(s, r.repl)
	}

	s = wrapLists(s)
	s = blockEnd.ReplaceAllString(s, "$1")
	s = paragraphs.ReplaceAllString(s, "<br><br>")
	return strings.ReplaceAll(s, "\n", "<br>")
}

// wrapLists groups consecutive marked list items into <ul> or <ol>.
func wrapLists(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))

	var open string
	var items strings.Builder
	flush := func() {
		if open == "" {
			return
		}
		tag := "ul"
		if open == olMark {
			tag = "ol"
		}
		out = append(out, "<"+tag+">"+items.String()+"</"+tag+">")
		items.Reset()
		open = ""
	}

	for _, line := range lines {
		mark := ""
		switch {
		case strings.HasPrefix(line, ulMark):
			mark = ulMark
		case strings.HasPrefix(line, olMark):
			mark = olMark
		}
		if mark == "" {
			flush()
			out = append(out, line)
			continue
		}
		if mark != open {
			flush()
			open = mark
		}
		items.WriteString(strings.TrimPrefix(line, mark))
	}
	flush()
	return strings.Join(out, "\n")
}
