package router

import "lmsassist/dom"

// Envelope is the wire form of a request. Page is the snapshot the request
// runs against; when it carries only a URL the caller's transport loads the
// page itself.
type Envelope struct {
	ID      string        `json:"id,omitempty"`
	Type    string        `json:"type"`
	Answer  string        `json:"answer,omitempty"`
	Content string        `json:"content,omitempty"`
	ReplyTo string        `json:"replyTo,omitempty"`
	Page    *dom.Snapshot `json:"page,omitempty"`
}

// Reply is the wire form of a response. Mutations lists the side effects
// the caller must replay on the live page.
type Reply struct {
	ID        string         `json:"id,omitempty"`
	Result    Response       `json:"result,omitempty"`
	Mutations []dom.Mutation `json:"mutations"`
	Error     string         `json:"error,omitempty"`
}

// Kinds lists every request kind this router handles.
var Kinds = []Kind{
	KindGetContent,
	KindProcessQuiz,
	KindHighlightCorrect,
	KindSelectAnswer,
	KindFillEditor,
	KindMarkViewed,
}

// Decode maps an envelope to its request variant.
func Decode(e Envelope) Request {
	switch Kind(e.Type) {
	case KindGetContent:
		return GetContent{}
	case KindProcessQuiz:
		return ProcessQuiz{}
	case KindHighlightCorrect:
		return HighlightCorrect{}
	case KindSelectAnswer:
		return SelectAnswer{Answer: e.Answer}
	case KindFillEditor:
		return FillEditor{Content: e.Content}
	case KindMarkViewed:
		return MarkViewed{}
	default:
		return Unknown{Type: e.Type}
	}
}
