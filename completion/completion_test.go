package completion

import (
	"testing"

	"lmsassist/dom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lessonURL = "https://vulms.example.edu/LessonViewer.aspx?LessonID=42"

func page(t *testing.T, url, body string) *dom.Page {
	t.Helper()
	p, err := dom.Parse(dom.Snapshot{URL: url, HTML: "<html><body>" + body + "</body></html>"})
	require.NoError(t, err)
	return p
}

func TestMark_WrongPage(t *testing.T) {
	p := page(t, "https://vulms.example.edu/Home.aspx", `<input type="checkbox" id="chkComplete">`)
	before, err := p.Root().Html()
	require.NoError(t, err)

	out := Mark(p)

	assert.Equal(t, dom.Outcome{Success: false, Message: "wrong page"}, out)
	assert.Empty(t, p.Journal())
	after, err := p.Root().Html()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMark_Checkbox(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
		changes int
	}{
		{
			name:    "by label",
			body:    `<input type="checkbox" id="c1"><label for="c1">I have viewed this lesson</label>`,
			message: "marked",
			changes: 2,
		},
		{
			name:    "by id",
			body:    `<input type="checkbox" id="chkLessonComplete">`,
			message: "marked",
			changes: 2,
		},
		{
			name:    "already checked",
			body:    `<input type="checkbox" name="isDone" checked>`,
			message: "already complete",
			changes: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := page(t, lessonURL, `<input type="checkbox" id="remember"><label for="remember">Remember me</label>`+tt.body)

			out := Mark(p)

			assert.True(t, out.Success)
			assert.Equal(t, tt.message, out.Message)
			assert.Equal(t, "reload", out.NextAction)
			assert.Len(t, p.Journal(), tt.changes)
			assert.False(t, dom.IsChecked(p.Root().Find("#remember")))
		})
	}
}

func TestMark_ButtonPhrase(t *testing.T) {
	p := page(t, lessonURL, `
		<button style="display:none">Mark as Complete</button>
		<a class="btn" href="#">Next</a>
		<input type="button" id="go" value="Mark as Viewed">
		<button id="later">Mark Complete</button>`)

	out := Mark(p)

	require.True(t, out.Success)
	journal := p.Journal()
	require.Len(t, journal, 1)
	assert.Equal(t, dom.OpClick, journal[0].Op)
	assert.Equal(t, dom.Path(p.Root().Find("#go").Get(0)), journal[0].Target)
}

func TestMark_HostControl(t *testing.T) {
	p := page(t, "https://vulms.example.edu/lessonviewer.aspx", `<div data-action="mark-complete"></div><span class="mark-complete"></span>`)

	out := Mark(p)

	require.True(t, out.Success)
	require.Len(t, p.Journal(), 1)
	assert.Equal(t, dom.Path(p.Root().Find(`[data-action="mark-complete"]`).Get(0)), p.Journal()[0].Target)
}

func TestMark_NotFound(t *testing.T) {
	p := page(t, lessonURL, `<button>Submit quiz</button>`)

	out := Mark(p)

	assert.Equal(t, dom.Outcome{Message: "not found"}, out)
	assert.Empty(t, p.Journal())
}
