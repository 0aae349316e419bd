package quiz

import "errors"

var (
	// ErrInvalidQuestionSet means no usable questions were available, or a
	// question violated the option-count / correct-index invariant.
	ErrInvalidQuestionSet = errors.New("invalid question set")

	ErrInvalidState       = errors.New("operation not allowed in current session state")
	ErrAlreadyAnswered    = errors.New("current question already answered")
	ErrNotYetAnswered     = errors.New("current question not yet answered")
	ErrNoSelection        = errors.New("no option selected")
	ErrInvalidOptionIndex = errors.New("option index out of range")
)
