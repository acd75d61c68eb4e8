// Package notes manages user-authored notes, independent of generation
// history. Notes are the one mutable document kind: they support merge
// updates in place.
package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lumi-ai/lumi/internal/store"
)

// ErrEmptyNote indicates a create with neither title nor content.
var ErrEmptyNote = errors.New("note needs a title or content")

// NoteStore is the slice of the document store the service needs.
type NoteStore interface {
	InsertNote(ctx context.Context, note store.Note) (store.Note, error)
	UpdateNote(ctx context.Context, ownerID, id string, patch store.NotePatch) (store.Note, error)
	DeleteNote(ctx context.Context, ownerID, id string) error
	ListNotes(ctx context.Context, ownerID string) ([]store.Note, error)
}

// Service is the notes controller for one signed-in user.
type Service struct {
	store   NoteStore
	ownerID string
	logger  *slog.Logger
}

// New creates a notes service scoped to ownerID.
func New(st NoteStore, ownerID string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, ownerID: ownerID, logger: logger}
}

// Create persists a new note.
func (s *Service) Create(ctx context.Context, title, content, tag string) (store.Note, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
		return store.Note{}, ErrEmptyNote
	}
	note, err := s.store.InsertNote(ctx, store.Note{
		OwnerID: s.ownerID,
		Title:   title,
		Content: content,
		Tag:     tag,
	})
	if err != nil {
		return store.Note{}, fmt.Errorf("creating note: %w", err)
	}
	s.logger.Debug("created note", "id", note.ID, "title", note.Title)
	return note, nil
}

// Update applies a merge patch: nil fields keep their stored value. The
// store bumps UpdatedAt on every applied patch.
func (s *Service) Update(ctx context.Context, id string, patch store.NotePatch) (store.Note, error) {
	note, err := s.store.UpdateNote(ctx, s.ownerID, id, patch)
	if err != nil {
		return store.Note{}, fmt.Errorf("updating note %s: %w", id, err)
	}
	return note, nil
}

// Delete removes a note. store.ErrNotFound if absent.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteNote(ctx, s.ownerID, id); err != nil {
		return fmt.Errorf("deleting note %s: %w", id, err)
	}
	return nil
}

// List returns the owner's notes, most recently updated first.
func (s *Service) List(ctx context.Context) ([]store.Note, error) {
	notes, err := s.store.ListNotes(ctx, s.ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return notes, nil
}
