package dom

import "errors"

// NotFound is returned in place of text when every lookup came up empty.
const NotFound = "Content not found"

// Failure categories. None of them are fatal; they end up as the message of
// a failed Outcome or as an error field in a response.
var (
	ErrNotFound  = errors.New("not found")
	ErrWrongPage = errors.New("wrong page")
)

// Outcome is the result shape shared by every mutating operation.
type Outcome struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	NextAction string `json:"nextAction,omitempty"`
}

// Succeeded builds a successful outcome.
func Succeeded(message, next string) Outcome {
	return Outcome{Success: true, Message: message, NextAction: next}
}

// Failed builds a failed outcome whose message is the error text.
func Failed(err error) Outcome {
	return Outcome{Message: err.Error()}
}
