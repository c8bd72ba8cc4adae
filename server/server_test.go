package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lmsassist/dom"
	"lmsassist/router"
	"lmsassist/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const lessonHTML = `<html><body><div id="lessonContent">Read chapter four before the quiz on Friday.</div></body></html>`

type liveStub struct{ err error }

func (l liveStub) Do(_ context.Context, url string, fn func(*dom.Page) error) error {
	if l.err != nil {
		return l.err
	}
	p, err := dom.Parse(dom.Snapshot{URL: url, HTML: lessonHTML})
	if err != nil {
		return err
	}
	return fn(p)
}

func newServer(live service.LivePages) http.Handler {
	return New(service.New(nil, live, zap.NewNop()), []string{"*"}, zap.NewNop())
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDispatch(t *testing.T) {
	h := newServer(nil)
	body, err := json.Marshal(router.Envelope{ID: "a", Type: "GET_CONTENT", Page: &dom.Snapshot{HTML: lessonHTML}})
	require.NoError(t, err)

	rec := post(t, h, "/dispatch", string(body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"a","result":{"content":"Read chapter four before the quiz on Friday."},"mutations":[]}`, rec.Body.String())
}

func TestDispatch_Unknown(t *testing.T) {
	rec := post(t, newServer(nil), "/dispatch", `{"type":"SELF_DESTRUCT"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":{"error":"Unknown request type"},"mutations":[]}`, rec.Body.String())
}

func TestDispatch_BadRequests(t *testing.T) {
	h := newServer(nil)

	assert.Equal(t, http.StatusBadRequest, post(t, h, "/dispatch", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, "/dispatch", `{"page":{"html":"<p></p>"}}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, "/dispatch", `{"type":"GET_CONTENT"}`).Code)
}

func TestLive(t *testing.T) {
	rec := post(t, newServer(liveStub{}), "/live", `{"type":"GET_CONTENT","page":{"url":"https://lms.example.edu/LessonViewer.aspx"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chapter four")

	rec = post(t, newServer(liveStub{err: errors.New("chrome crashed")}), "/live", `{"type":"GET_CONTENT","page":{"url":"https://lms.example.edu/"}}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthzAndKinds(t *testing.T) {
	h := newServer(nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/kinds", nil))
	assert.Contains(t, rec.Body.String(), "PROCESS_QUIZ")
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dispatch", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
