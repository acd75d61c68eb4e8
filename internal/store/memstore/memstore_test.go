package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/store"
)

const owner = "user-1"

func insertTitles(t *testing.T, s *Store, titles ...string) []store.Record {
	t.Helper()
	out := make([]store.Record, 0, len(titles))
	for _, title := range titles {
		rec, err := s.InsertRecord(context.Background(), store.Record{
			OwnerID: owner,
			Type:    artifact.TypeQuiz,
			Title:   title,
			Payload: json.RawMessage(`{}`),
		})
		if err != nil {
			t.Fatalf("InsertRecord(%q): %v", title, err)
		}
		out = append(out, rec)
	}
	return out
}

func TestInsertAssignsIDAndMonotonicTimestamp(t *testing.T) {
	s := New()
	recs := insertTitles(t, s, "A", "B", "C")

	for i, r := range recs {
		if r.ID == "" {
			t.Errorf("record %d has empty ID", i)
		}
		if i > 0 && !r.CreatedAt.After(recs[i-1].CreatedAt) {
			t.Errorf("CreatedAt not monotonic: %v then %v", recs[i-1].CreatedAt, r.CreatedAt)
		}
	}
}

func TestSearchPrefixRange(t *testing.T) {
	s := New()
	insertTitles(t, s, "Photosynthesis", "Phosphorus", "Physics", "Biology")

	got, err := s.SearchRecords(context.Background(), owner, store.Query{
		TitlePrefix: "Pho",
		Sort:        store.Sort{Field: store.SortByTitle},
		Limit:       10,
	})
	if err != nil {
		t.Fatalf("SearchRecords: %v", err)
	}

	want := []string{"Phosphorus", "Photosynthesis"}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("result[%d] = %q, want %q", i, got[i].Title, title)
		}
	}
}

func TestSearchPrefixRequiresTitleAscending(t *testing.T) {
	s := New()
	_, err := s.SearchRecords(context.Background(), owner, store.Query{
		TitlePrefix: "Pho",
		Sort:        store.Sort{Field: store.SortByCreatedAt, Desc: true},
		Limit:       10,
	})
	if !errors.Is(err, store.ErrQueryUnsupported) {
		t.Errorf("error = %v, want ErrQueryUnsupported", err)
	}
}

func TestSearchTypeFilterAndOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.InsertRecord(ctx, store.Record{
		OwnerID: owner, Type: artifact.TypeExplanation, Title: "Cells", Payload: json.RawMessage(`{}`),
	}); err != nil {
		t.Fatal(err)
	}
	insertTitles(t, s, "Quiz One", "Quiz Two")

	got, err := s.SearchRecords(ctx, owner, store.Query{
		Type:  artifact.TypeQuiz,
		Sort:  store.Sort{Field: store.SortByCreatedAt, Desc: true},
		Limit: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2 quizzes", len(got))
	}
	if got[0].Title != "Quiz Two" {
		t.Errorf("newest first: got %q", got[0].Title)
	}
}

func TestSearchCursorPagination(t *testing.T) {
	s := New()
	insertTitles(t, s, "A", "B", "C", "D", "E")
	ctx := context.Background()

	q := store.Query{Sort: store.Sort{Field: store.SortByTitle}, Limit: 2}

	page1, err := s.SearchRecords(ctx, owner, q)
	if err != nil {
		t.Fatal(err)
	}
	q.After = store.CursorFrom(page1[len(page1)-1])

	page2, err := s.SearchRecords(ctx, owner, q)
	if err != nil {
		t.Fatal(err)
	}

	got := []string{page1[0].Title, page1[1].Title, page2[0].Title, page2[1].Title}
	want := []string{"A", "B", "C", "D"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("page walk[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSearchCursorSurvivesDeletedAnchor(t *testing.T) {
	s := New()
	recs := insertTitles(t, s, "A", "B", "C", "D")
	ctx := context.Background()

	q := store.Query{Sort: store.Sort{Field: store.SortByTitle}, Limit: 2}
	page1, err := s.SearchRecords(ctx, owner, q)
	if err != nil {
		t.Fatal(err)
	}
	_ = recs

	// Delete the anchor record, then resume from its cursor.
	if err := s.DeleteRecord(ctx, owner, page1[1].ID); err != nil {
		t.Fatal(err)
	}
	q.After = store.CursorFrom(page1[1])

	page2, err := s.SearchRecords(ctx, owner, q)
	if err != nil {
		t.Fatal(err)
	}
	if len(page2) != 2 || page2[0].Title != "C" {
		t.Errorf("resume after deleted anchor: got %+v, want C,D", titles(page2))
	}
}

func titles(recs []store.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}

func TestDeleteRecordsAtomic(t *testing.T) {
	s := New()
	recs := insertTitles(t, s, "A", "B", "C")
	ctx := context.Background()

	// Batch containing an unknown ID must delete nothing.
	err := s.DeleteRecords(ctx, owner, []string{recs[0].ID, "missing"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	all, _ := s.ListAllRecords(ctx, owner)
	if len(all) != 3 {
		t.Fatalf("partial delete happened: %d records left, want 3", len(all))
	}

	// Valid batch removes exactly the named records.
	if err := s.DeleteRecords(ctx, owner, []string{recs[0].ID, recs[2].ID}); err != nil {
		t.Fatal(err)
	}
	all, _ = s.ListAllRecords(ctx, owner)
	if len(all) != 1 || all[0].ID != recs[1].ID {
		t.Errorf("remaining = %v, want only %q", titles(all), recs[1].Title)
	}
}

func TestOwnersIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()
	insertTitles(t, s, "Mine")
	if _, err := s.InsertRecord(ctx, store.Record{
		OwnerID: "user-2", Type: artifact.TypeQuiz, Title: "Theirs", Payload: json.RawMessage(`{}`),
	}); err != nil {
		t.Fatal(err)
	}

	all, _ := s.ListAllRecords(ctx, owner)
	if len(all) != 1 || all[0].Title != "Mine" {
		t.Errorf("owner scoping leaked: %v", titles(all))
	}
}

func TestNoteMergeUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()

	note, err := s.InsertNote(ctx, store.Note{
		OwnerID: owner, Title: "Exam plan", Content: "chapters 1-3", Tag: "biology",
	})
	if err != nil {
		t.Fatal(err)
	}

	newContent := "chapters 1-5"
	updated, err := s.UpdateNote(ctx, owner, note.ID, store.NotePatch{Content: &newContent})
	if err != nil {
		t.Fatal(err)
	}

	if updated.Title != "Exam plan" || updated.Tag != "biology" {
		t.Errorf("merge update touched unrelated fields: %+v", updated)
	}
	if updated.Content != newContent {
		t.Errorf("Content = %q, want %q", updated.Content, newContent)
	}
	if !updated.UpdatedAt.After(note.UpdatedAt) {
		t.Error("UpdatedAt not bumped")
	}

	if _, err := s.UpdateNote(ctx, owner, "missing", store.NotePatch{}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update missing note: %v, want ErrNotFound", err)
	}
}
