package generate

import (
	"errors"
	"fmt"
)

// Sentinel errors for generation preconditions.
var (
	// ErrEmptyInput indicates the trimmed source text or chat message was
	// empty. No request is issued and no state changes.
	ErrEmptyInput = errors.New("source text is empty")

	// ErrNoQuiz indicates a practice run was graded while the active
	// artifact is not a quiz.
	ErrNoQuiz = errors.New("no active quiz to grade")

	// ErrNoExplanation indicates a chat message was sent while the active
	// artifact is not an explanation.
	ErrNoExplanation = errors.New("no active explanation to chat about")
)

// TransportKind sub-classifies a remote call failure.
type TransportKind string

const (
	// KindRateLimited means the model API throttled the request; retrying
	// after a delay can succeed.
	KindRateLimited TransportKind = "rate_limited"

	// KindQuotaExceeded means the usage quota for the current period is
	// spent; retrying now will not help.
	KindQuotaExceeded TransportKind = "quota_exceeded"

	// KindGeneric covers every other network or server failure.
	KindGeneric TransportKind = "generic"
)

// TransportError is a failed call to the model API.
type TransportError struct {
	Kind TransportKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model call failed (%s): %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError is a well-formed model response whose payload does not match
// the expected structure. Non-fatal: the session stays usable and the
// previous artifact is left untouched.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("model response did not match expected structure: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
