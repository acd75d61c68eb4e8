package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lumi-ai/lumi/internal/store"
)

func (s *Store) InsertNote(ctx context.Context, note store.Note) (store.Note, error) {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO notes (id, owner_id, title, content, tag)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		note.ID, note.OwnerID, note.Title, note.Content, note.Tag,
	).Scan(&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return store.Note{}, fmt.Errorf("inserting note: %w", err)
	}
	return note, nil
}

// UpdateNote applies a merge patch: COALESCE keeps columns the patch leaves
// nil, and updated_at is bumped on every applied patch.
func (s *Store) UpdateNote(ctx context.Context, ownerID, id string, patch store.NotePatch) (store.Note, error) {
	var note store.Note
	err := s.pool.QueryRow(ctx, `
		UPDATE notes
		SET title      = COALESCE($3, title),
		    content    = COALESCE($4, content),
		    tag        = COALESCE($5, tag),
		    updated_at = clock_timestamp()
		WHERE owner_id = $1 AND id = $2
		RETURNING id, owner_id, title, content, tag, created_at, updated_at`,
		ownerID, id, patch.Title, patch.Content, patch.Tag,
	).Scan(&note.ID, &note.OwnerID, &note.Title, &note.Content, &note.Tag,
		&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Note{}, store.ErrNotFound
		}
		return store.Note{}, fmt.Errorf("updating note %s: %w", id, err)
	}
	return note, nil
}

func (s *Store) DeleteNote(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM notes WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("deleting note %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListNotes(ctx context.Context, ownerID string) ([]store.Note, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, title, content, tag, created_at, updated_at
		FROM notes
		WHERE owner_id = $1
		ORDER BY updated_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	notes := []store.Note{}
	for rows.Next() {
		var n store.Note
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.Tag,
			&n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading notes: %w", err)
	}
	return notes, nil
}
