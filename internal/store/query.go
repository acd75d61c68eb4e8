package store

import (
	"fmt"
	"time"

	"github.com/lumi-ai/lumi/internal/artifact"
)

// SortField names an orderable record attribute.
type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByTitle     SortField = "title"
)

// Sort is an ordering specification.
type Sort struct {
	Field SortField
	Desc  bool
}

// TitleSentinel is the upper bound appended to a prefix for the half-open
// range scan [prefix, prefix+TitleSentinel): a very high Unicode code point
// past every character that can appear in a title.
const TitleSentinel = ""

// Query describes one page of an owner's history.
//
// A Cursor obtained from one Query is valid only for an identical
// filter/sort/prefix combination; callers reset the cursor whenever any of
// those change.
type Query struct {
	// Type restricts to one artifact type; empty means all types.
	Type artifact.Type

	// TitlePrefix, when non-empty, restricts to titles in the range
	// [TitlePrefix, TitlePrefix+TitleSentinel). Prefix queries must sort
	// by title ascending; see Validate.
	TitlePrefix string

	Sort  Sort
	Limit int

	// After resumes strictly after the record it was derived from.
	After *Cursor
}

// Validate reports whether the query is servable by the drivers. The
// title-prefix constraint holds for every driver so that observable search
// behavior is uniform regardless of backend.
func (q Query) Validate() error {
	if q.Limit <= 0 {
		return fmt.Errorf("query limit must be positive, got %d", q.Limit)
	}
	switch q.Sort.Field {
	case SortByCreatedAt, SortByTitle:
	default:
		return fmt.Errorf("unknown sort field %q", q.Sort.Field)
	}
	if q.TitlePrefix != "" && (q.Sort.Field != SortByTitle || q.Sort.Desc) {
		return ErrQueryUnsupported
	}
	if q.Type != "" && !q.Type.Valid() {
		return fmt.Errorf("unknown artifact type %q", q.Type)
	}
	return nil
}

// Cursor points at the last record seen by a paginated query. It carries
// both sort keys plus the ID tiebreak so either ordering can resume.
type Cursor struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// CursorFrom derives the resume cursor from the last record of a page.
func CursorFrom(rec Record) *Cursor {
	return &Cursor{ID: rec.ID, Title: rec.Title, CreatedAt: rec.CreatedAt}
}
