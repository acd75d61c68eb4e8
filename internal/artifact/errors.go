package artifact

import "errors"

// Sentinel errors for payload parsing and validation, checked with
// errors.Is by callers that need to distinguish malformed model output
// from transport failures.
var (
	// ErrUnknownType indicates the type tag is not a known variant.
	ErrUnknownType = errors.New("unknown artifact type")

	// ErrMalformedPayload indicates the payload is not valid JSON for
	// the variant's shape.
	ErrMalformedPayload = errors.New("malformed artifact payload")

	// ErrInvalidPayload indicates the payload parsed but violates a
	// structural rule (no questions, answer index out of range, orphan
	// mind map node, empty card).
	ErrInvalidPayload = errors.New("invalid artifact payload")
)
