package question

import "errors"

// Limits applied when loading the bank.
const (
	DefaultTopic    = "Quiz"
	OptionCount     = 4
	MaxPromptLength = 300
	MaxOptionLength = 200
)

// ErrInsufficientSupply is returned when the deck holds fewer questions than requested.
var ErrInsufficientSupply = errors.New("insufficient question supply")

// ErrMalformed marks a bank row that cannot be played.
var ErrMalformed = errors.New("malformed question")

// Record is a sanitized, playable question.
type Record struct {
	Topic         string   `json:"topic"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correctOption"`
}

// Clone returns a deep copy so callers never share the deck's option slices.
func (r Record) Clone() Record {
	r.Options = append([]string(nil), r.Options...)
	return r
}
