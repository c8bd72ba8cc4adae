package quiz

import (
	"testing"

	"lmsassist/dom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(t *testing.T, body string) *dom.Page {
	t.Helper()
	p, err := dom.Parse(dom.Snapshot{
		URL:  "https://vulms.example.edu/Quiz/QuizQuestion.aspx",
		HTML: "<html><body>" + body + "</body></html>",
	})
	require.NoError(t, err)
	return p
}

const optionsTable = `
<table><tr><td><table>
	<tr><td><input type="radio" name="choice" id="radioChoice1"></td><td><span class="expression">Paris</span></td></tr>
	<tr><td><input type="radio" name="choice" id="radioChoice2" checked></td><td><span class="expression">London</span></td></tr>
	<tr><td><input type="radio" name="choice" id="radioChoice3"></td><td><span class="expression">Rome</span></td></tr>
</table></td></tr></table>`

func TestExtract_QuestionSurface(t *testing.T) {
	p := page(t, `<span id="lblCourseCode">CS101 - Introduction to Computing</span>
		<textarea id="txtQuestion1" style="display:none">hidden question</textarea>
		<textarea id="txtQuestion2">What is the capital of England?</textarea>`+optionsTable)

	rec, ok := Extract(p)
	require.True(t, ok)
	assert.Equal(t, "What is the capital of England?", rec.QuestionText)
	assert.Equal(t, []string{"Paris", "London", "Rome"}, rec.Options)
	assert.Equal(t, "CS101", rec.CourseCode)
	assert.Equal(t, "Introduction to Computing", rec.CourseName)
	require.NotNil(t, rec.SelectedOption)
	assert.Equal(t, "London", *rec.SelectedOption)
	assert.Equal(t, rec.QuestionText+"\n\n"+"Paris\n\nLondon\n\nRome", rec.FormattedText)
}

func TestExtract_LastVisibleSurfaceWins(t *testing.T) {
	p := page(t, `
		<textarea id="txtQuestionA">first visible</textarea>
		<textarea id="txtQuestionB" style="opacity: 0">faded</textarea>
		<input name="txtQuestionC" value="second visible">
		<textarea id="txtQuestionD">   </textarea>`+optionsTable)

	rec, ok := Extract(p)
	require.True(t, ok)
	assert.Equal(t, "second visible", rec.QuestionText)
}

func TestExtract_WrapperFallbackWithMath(t *testing.T) {
	p := page(t, `<table><tr><td><table><tr><td>
		<div id="divQuestion1">
			<span style="display:none">stale</span>
			<p>Find <span class="MathJax">x2</span><script type="math/tex">x^2</script> at x = 2</p>
		</div>
	</td></tr></table></td></tr></table>
	<table><tr><td><table><tr><td><span class="expression"><script type="math/tex">4</script></span></td></tr></table></td></tr></table>
	<input name="txtAnswer2" value=" 8 ">`)

	rec, ok := Extract(p)
	require.True(t, ok)
	assert.Equal(t, `Find \[x^2\] at x = 2`, rec.QuestionText)
	assert.Equal(t, []string{`\[4\]`, "8"}, rec.Options)
	assert.Nil(t, rec.SelectedOption)
}

func TestExtract_PlainTextWrapper(t *testing.T) {
	p := page(t, `<table><tr><td><table><tr><td><div id="divQuestion1">  What is the   capital of France?  </div></td></tr></table></td></tr></table>`+optionsTable)

	rec, ok := Extract(p)
	require.True(t, ok)
	assert.Equal(t, "What is the capital of France?", rec.QuestionText)
}

func TestExtract_WrapperMathInLaterChild(t *testing.T) {
	p := page(t, `<table><tr><td><table><tr><td><div id="divQuestion1">`+
		`<span style="display:none">stale</span><p>Question 1:</p><p>Find <script type="math/tex">x^2</script></p>`+
		`</div></td></tr></table></td></tr></table>`+optionsTable)

	rec, ok := Extract(p)
	require.True(t, ok)
	assert.Equal(t, `Question 1: Find \[x^2\]`, rec.QuestionText)
}

func TestExtract_ParagraphWrapper(t *testing.T) {
	p := page(t, `<table><tr><td><p>  Which layer routes packets?  </p><p>ignored</p></td></tr></table>`+optionsTable)

	rec, ok := Extract(p)
	require.True(t, ok)
	assert.Equal(t, "Which layer routes packets?", rec.QuestionText)
}

func TestExtract_NotFound(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "wrapper with no visible children",
			body: `<table><tr><td><table><tr><td><div id="divQuestion1"><p hidden>x</p><span> </span></div></td></tr></table></td></tr></table>` + optionsTable,
		},
		{
			name: "question but no options",
			body: `<textarea id="txtQuestion1">A question</textarea>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := Extract(page(t, tt.body))
			assert.False(t, ok)
			assert.Equal(t, dom.NotFound, rec.QuestionText)
			assert.Empty(t, rec.Options)
		})
	}
}

func TestCourse(t *testing.T) {
	tests := []struct {
		label string
		code  string
		name  string
	}{
		{"CS101 - Introduction to Computing", "CS101", "Introduction to Computing"},
		{"MTH1010: Calculus", "MTH1010", "Calculus"},
		{"ENG201", "ENG201", "ENG201"},
		{"Orientation Week", "Orientation Week", "Orientation Week"},
		{"cs101 lowercase", "cs101 lowercase", "cs101 lowercase"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			code, name := Course(page(t, `<h2 class="course-title">`+tt.label+`</h2>`).Root())
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.name, name)
		})
	}

	code, name := Course(page(t, `<p>no label</p>`).Root())
	assert.Empty(t, code)
	assert.Empty(t, name)
}

func TestHighlight(t *testing.T) {
	p := page(t, optionsTable)
	require.True(t, Highlight(p))
	assert.True(t, p.Root().Find("span.expression."+HighlightClass).Length() == 1)
	assert.Equal(t, "London", p.Root().Find("."+HighlightClass).Text())
	assert.Len(t, p.Journal(), 1)

	none := page(t, `<input type="radio" id="radioChoice1">`)
	assert.False(t, Highlight(none))
	assert.Empty(t, none.Journal())
}

func TestDiscussionContent(t *testing.T) {
	p := page(t, `<div id="divGDBQuestion">  Discuss the trade-offs between TCP and UDP for streaming.  </div>`)
	assert.Equal(t, "Discuss the trade-offs between TCP and UDP for streaming.", DiscussionContent(p))

	p = page(t, `<div><span>menu</span></div>
<div>GDB: compare two sorting algorithms</div>`)
	assert.Equal(t, "GDB: compare two sorting algorithms", DiscussionContent(p))

	p = page(t, `<div><span>Menu Home Courses</span></div><div>GDB: compare two sorting algorithms</div>`)
	assert.Equal(t, "GDB: compare two sorting algorithms", DiscussionContent(p))

	assert.Equal(t, dom.NotFound, DiscussionContent(page(t, `<p>nothing</p>`)))
}
