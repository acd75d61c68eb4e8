package store

import "errors"

// Sentinel errors shared by every driver, checked with errors.Is.
var (
	// ErrNotFound indicates the named document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicate indicates an insert collided with an existing ID.
	ErrDuplicate = errors.New("duplicate document id")

	// ErrQueryUnsupported indicates the filter/sort combination is not
	// servable: a title-prefix scan requires ordering by title ascending.
	// Callers surface this distinctly and must not retry unchanged.
	ErrQueryUnsupported = errors.New("unsupported query: title prefix scans must sort by title ascending")
)
