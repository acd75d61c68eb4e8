// Package store defines the document store contract shared by the history
// and notes layers, and the driver-neutral types (Record, Note, Query,
// Cursor). Drivers live in the subpackages postgres, mongo, and memstore.
//
// All reads and writes are owner-scoped: a caller can only ever see or
// mutate documents belonging to the owner it names. Records are immutable
// after insert; Notes support merge updates.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lumi-ai/lumi/internal/artifact"
)

// Record is one durable history entry: the persisted form of a generated
// artifact. CreatedAt is assigned by the store at insert time and is
// monotonic per owner for practical purposes.
type Record struct {
	ID      string          `json:"id" bson:"_id"`
	OwnerID string          `json:"ownerId" bson:"owner_id"`
	Type    artifact.Type   `json:"type" bson:"type"`
	Title   string          `json:"title" bson:"title"`
	Payload json.RawMessage `json:"payload" bson:"payload"`

	// Score and QuestionCount are set only on quiz records saved from a
	// graded practice run.
	Score         *int `json:"score,omitempty" bson:"score,omitempty"`
	QuestionCount *int `json:"questionCount,omitempty" bson:"question_count,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// Note is a user-authored note, independent of generation history.
type Note struct {
	ID        string    `json:"id" bson:"_id"`
	OwnerID   string    `json:"ownerId" bson:"owner_id"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	Tag       string    `json:"tag" bson:"tag"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// Store is the document store collaborator. Implementations must provide
// atomic batch deletion: DeleteRecords either removes every named record or
// none of them.
type Store interface {
	// InsertRecord persists rec, assigning ID (when empty) and the
	// server-side CreatedAt. The stored record is returned.
	InsertRecord(ctx context.Context, rec Record) (Record, error)

	// SearchRecords runs q against the owner's records. Results are
	// ordered by q.Sort and bounded by q.Limit; q.After resumes strictly
	// after a previously returned record.
	SearchRecords(ctx context.Context, ownerID string, q Query) ([]Record, error)

	// ListAllRecords returns every record for the owner, newest first.
	ListAllRecords(ctx context.Context, ownerID string) ([]Record, error)

	// DeleteRecord removes one record. ErrNotFound if absent.
	DeleteRecord(ctx context.Context, ownerID, id string) error

	// DeleteRecords removes the named records in one atomic batch.
	DeleteRecords(ctx context.Context, ownerID string, ids []string) error

	// Notes.
	InsertNote(ctx context.Context, note Note) (Note, error)
	UpdateNote(ctx context.Context, ownerID, id string, patch NotePatch) (Note, error)
	DeleteNote(ctx context.Context, ownerID, id string) error
	ListNotes(ctx context.Context, ownerID string) ([]Note, error)

	// Close releases driver resources.
	Close(ctx context.Context) error
}

// NotePatch is a merge update: nil fields are left untouched. UpdatedAt is
// bumped by the store on any applied patch.
type NotePatch struct {
	Title   *string
	Content *string
	Tag     *string
}
