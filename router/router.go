// Package router maps inbound requests onto the extraction and action
// packages. It holds no logic of its own beyond shaping responses.
package router

import (
	"lmsassist/answer"
	"lmsassist/completion"
	"lmsassist/dom"
	"lmsassist/editor"
	"lmsassist/quiz"
)

// Kind is the wire name of a request.
type Kind string

const (
	KindGetContent       Kind = "GET_CONTENT"
	KindProcessQuiz      Kind = "PROCESS_QUIZ"
	KindHighlightCorrect Kind = "HIGHLIGHT_CORRECT"
	KindSelectAnswer     Kind = "SELECT_ANSWER"
	KindFillEditor       Kind = "FILL_EDITOR"
	KindMarkViewed       Kind = "MARK_VIEWED"
)

// UnknownRequest is the error text returned for unrecognized kinds.
const UnknownRequest = "Unknown request type"

// Request is one of the request variants below.
type Request interface {
	Kind() Kind
	request()
}

type (
	GetContent       struct{}
	ProcessQuiz      struct{}
	HighlightCorrect struct{}
	SelectAnswer     struct{ Answer string }
	FillEditor       struct{ Content string }
	MarkViewed       struct{}

	// Unknown carries a kind this build does not handle.
	Unknown struct{ Type string }
)

func (GetContent) Kind() Kind       { return KindGetContent }
func (ProcessQuiz) Kind() Kind      { return KindProcessQuiz }
func (HighlightCorrect) Kind() Kind { return KindHighlightCorrect }
func (SelectAnswer) Kind() Kind     { return KindSelectAnswer }
func (FillEditor) Kind() Kind       { return KindFillEditor }
func (MarkViewed) Kind() Kind       { return KindMarkViewed }
func (u Unknown) Kind() Kind        { return Kind(u.Type) }

func (GetContent) request()       {}
func (ProcessQuiz) request()      {}
func (HighlightCorrect) request() {}
func (SelectAnswer) request()     {}
func (FillEditor) request()       {}
func (MarkViewed) request()       {}
func (Unknown) request()          {}

// Response is any of the response shapes below, or a dom.Outcome.
type Response any

type ContentResponse struct {
	Content string `json:"content"`
}

type QuizResponse struct {
	quiz.Record
	NeedsAI bool `json:"needsAI"`
	Error   bool `json:"error"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Dispatch runs req against p and returns its response.
func Dispatch(p *dom.Page, req Request) Response {
	switch r := req.(type) {
	case GetContent:
		return ContentResponse{Content: quiz.DiscussionContent(p)}
	case ProcessQuiz:
		rec, ok := quiz.Extract(p)
		return QuizResponse{
			Record:  rec,
			NeedsAI: ok && rec.SelectedOption == nil,
			Error:   !ok,
		}
	case HighlightCorrect:
		return SuccessResponse{Success: quiz.Highlight(p)}
	case SelectAnswer:
		return SuccessResponse{Success: answer.Select(p, r.Answer).Success}
	case FillEditor:
		return SuccessResponse{Success: editor.Fill(p, r.Content).Success}
	case MarkViewed:
		return completion.Mark(p)
	default:
		return ErrorResponse{Error: UnknownRequest}
	}
}
