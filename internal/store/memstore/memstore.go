// Package memstore is the in-memory reference implementation of
// store.Store. It backs unit tests and the --store memory demo mode, and
// documents the query semantics the real drivers must match.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumi-ai/lumi/internal/store"
)

// Store is an in-memory store.Store. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	records map[string][]store.Record // ownerID -> records, insertion order
	notes   map[string][]store.Note
	lastTS  time.Time

	// now is swappable in tests.
	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		records: make(map[string][]store.Record),
		notes:   make(map[string][]store.Note),
		now:     time.Now,
	}
}

// SetClock replaces the timestamp source. Test use only.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// serverTime returns a strictly increasing timestamp, mirroring the
// monotonic-per-owner property of real server timestamps.
func (s *Store) serverTime() time.Time {
	t := s.now()
	if !t.After(s.lastTS) {
		t = s.lastTS.Add(time.Microsecond)
	}
	s.lastTS = t
	return t
}

func (s *Store) InsertRecord(_ context.Context, rec store.Record) (store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else {
		for _, r := range s.records[rec.OwnerID] {
			if r.ID == rec.ID {
				return store.Record{}, store.ErrDuplicate
			}
		}
	}
	rec.CreatedAt = s.serverTime()

	s.records[rec.OwnerID] = append(s.records[rec.OwnerID], rec)
	return rec, nil
}

func (s *Store) SearchRecords(_ context.Context, ownerID string, q store.Query) ([]store.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []store.Record
	for _, r := range s.records[ownerID] {
		if q.Type != "" && r.Type != q.Type {
			continue
		}
		if q.TitlePrefix != "" {
			if r.Title < q.TitlePrefix || r.Title >= q.TitlePrefix+store.TitleSentinel {
				continue
			}
		}
		matched = append(matched, r)
	}

	sortRecords(matched, q.Sort)

	if q.After != nil {
		idx := -1
		for i, r := range matched {
			if r.ID == q.After.ID {
				idx = i
				break
			}
		}
		if idx >= 0 {
			matched = matched[idx+1:]
		} else {
			// The cursor record was deleted; resume after its sort
			// position instead.
			cut := 0
			for cut < len(matched) && !afterCursor(matched[cut], q) {
				cut++
			}
			matched = matched[cut:]
		}
	}

	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	out := make([]store.Record, len(matched))
	copy(out, matched)
	return out, nil
}

// afterCursor reports whether rec sorts strictly after the query cursor.
func afterCursor(rec store.Record, q store.Query) bool {
	c := q.After
	switch q.Sort.Field {
	case store.SortByTitle:
		if rec.Title != c.Title {
			if q.Sort.Desc {
				return rec.Title < c.Title
			}
			return rec.Title > c.Title
		}
	default:
		if !rec.CreatedAt.Equal(c.CreatedAt) {
			if q.Sort.Desc {
				return rec.CreatedAt.Before(c.CreatedAt)
			}
			return rec.CreatedAt.After(c.CreatedAt)
		}
	}
	return rec.ID > c.ID
}

func sortRecords(recs []store.Record, by store.Sort) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		var less bool
		switch by.Field {
		case store.SortByTitle:
			if a.Title == b.Title {
				return a.ID < b.ID
			}
			less = a.Title < b.Title
		default:
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID < b.ID
			}
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if by.Desc {
			return !less
		}
		return less
	})
}

func (s *Store) ListAllRecords(_ context.Context, ownerID string) ([]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]store.Record, len(s.records[ownerID]))
	copy(out, s.records[ownerID])
	sortRecords(out, store.Sort{Field: store.SortByCreatedAt, Desc: true})
	return out, nil
}

func (s *Store) DeleteRecord(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.records[ownerID]
	for i, r := range recs {
		if r.ID == id {
			s.records[ownerID] = append(recs[:i:i], recs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) DeleteRecords(_ context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// All-or-nothing: verify the whole batch before touching state.
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	found := 0
	for _, r := range s.records[ownerID] {
		if want[r.ID] {
			found++
		}
	}
	if found != len(want) {
		return store.ErrNotFound
	}

	kept := s.records[ownerID][:0]
	for _, r := range s.records[ownerID] {
		if !want[r.ID] {
			kept = append(kept, r)
		}
	}
	s.records[ownerID] = kept
	return nil
}

func (s *Store) InsertNote(_ context.Context, note store.Note) (store.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	ts := s.serverTime()
	note.CreatedAt = ts
	note.UpdatedAt = ts

	s.notes[note.OwnerID] = append(s.notes[note.OwnerID], note)
	return note, nil
}

func (s *Store) UpdateNote(_ context.Context, ownerID, id string, patch store.NotePatch) (store.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := s.notes[ownerID]
	for i := range notes {
		if notes[i].ID != id {
			continue
		}
		if patch.Title != nil {
			notes[i].Title = *patch.Title
		}
		if patch.Content != nil {
			notes[i].Content = *patch.Content
		}
		if patch.Tag != nil {
			notes[i].Tag = *patch.Tag
		}
		notes[i].UpdatedAt = s.serverTime()
		return notes[i], nil
	}
	return store.Note{}, store.ErrNotFound
}

func (s *Store) DeleteNote(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := s.notes[ownerID]
	for i, n := range notes {
		if n.ID == id {
			s.notes[ownerID] = append(notes[:i:i], notes[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListNotes(_ context.Context, ownerID string) ([]store.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]store.Note, len(s.notes[ownerID]))
	copy(out, s.notes[ownerID])
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) Close(context.Context) error { return nil }
