package notes

import (
	"context"
	"errors"
	"testing"

	"github.com/lumi-ai/lumi/internal/store"
	"github.com/lumi-ai/lumi/internal/store/memstore"
	"github.com/lumi-ai/lumi/internal/testutil"
)

func newTestService() *Service {
	return New(memstore.New(), "owner-1", testutil.DiscardLogger())
}

func strPtr(s string) *string { return &s }

func TestCreateAndList(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	note, err := s.Create(ctx, "Biology", "Mitochondria are the powerhouse.", "bio")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if note.ID == "" || note.CreatedAt.IsZero() {
		t.Errorf("note missing store-assigned fields: %+v", note)
	}

	notes, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(notes) != 1 || notes[0].Title != "Biology" {
		t.Errorf("List() = %+v", notes)
	}
}

func TestCreateEmpty(t *testing.T) {
	s := newTestService()
	if _, err := s.Create(context.Background(), "  ", "", "tag"); !errors.Is(err, ErrEmptyNote) {
		t.Errorf("Create() error = %v, want ErrEmptyNote", err)
	}
}

func TestUpdateMergesFields(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	note, err := s.Create(ctx, "Biology", "first draft", "bio")
	if err != nil {
		t.Fatal(err)
	}

	updated, err := s.Update(ctx, note.ID, store.NotePatch{Content: strPtr("second draft")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "Biology" {
		t.Errorf("unpatched title changed: %q", updated.Title)
	}
	if updated.Content != "second draft" {
		t.Errorf("Content = %q", updated.Content)
	}
	if !updated.UpdatedAt.After(note.UpdatedAt) {
		t.Error("UpdatedAt not bumped")
	}
}

func TestUpdateMissing(t *testing.T) {
	s := newTestService()
	_, err := s.Update(context.Background(), "no-such-id", store.NotePatch{Title: strPtr("x")})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	note, err := s.Create(ctx, "Biology", "content", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, note.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, note.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
