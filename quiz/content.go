package quiz

import (
	"lmsassist/dom"
	"lmsassist/scanner"
)

var discussionQuery = scanner.Query{
	Selectors: scanner.SelectorChain{
		"#divGDBQuestion",
		"#MainContent_divQuestion",
		".gdb-question",
		"#lessonContent",
		"article",
		"main",
	},
	MinLength: 30,
	Keywords:  []string{"Question", "GDB", "Discuss", "Assignment"},
	MinLine:   20,
	MaxLine:   1500,
}

// DiscussionContent returns the text of a graded discussion or lesson page,
// or dom.NotFound.
func DiscussionContent(p *dom.Page) string {
	return scanner.Scan(p.Root(), discussionQuery)
}
