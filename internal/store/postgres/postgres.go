// Package postgres implements store.Store on PostgreSQL with pgx.
//
// Record payloads are stored as JSONB; pagination uses keyset scans over
// (sort key, id) so cursors stay valid as rows are inserted or deleted
// around them. Schema is managed by the db package's embedded migrations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumi-ai/lumi/db"
	"github.com/lumi-ai/lumi/internal/store"
)

const uniqueViolation = "23505"

// Store implements store.Store over a pgx connection pool.
//
// Safe for concurrent use.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New runs migrations against connURL and returns a Store backed by a new
// connection pool.
func New(ctx context.Context, connURL string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := db.Migrate(connURL); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// NewWithPool wraps an existing pool. The caller owns the pool's lifecycle;
// Close becomes a no-op. Used by integration tests.
func NewWithPool(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

func (s *Store) InsertRecord(ctx context.Context, rec store.Record) (store.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO history_records (id, owner_id, type, title, payload, score, question_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		rec.ID, rec.OwnerID, rec.Type, rec.Title, []byte(rec.Payload), rec.Score, rec.QuestionCount,
	).Scan(&rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.Record{}, store.ErrDuplicate
		}
		return store.Record{}, fmt.Errorf("inserting record: %w", err)
	}

	s.logger.Debug("inserted history record", "id", rec.ID, "type", rec.Type)
	return rec, nil
}

func (s *Store) SearchRecords(ctx context.Context, ownerID string, q store.Query) ([]store.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	sql, args := buildSearchSQL(ownerID, q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("searching records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (s *Store) ListAllRecords(ctx context.Context, ownerID string) ([]store.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, type, title, payload, score, question_count, created_at
		FROM history_records
		WHERE owner_id = $1
		ORDER BY created_at DESC, id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]store.Record, error) {
	records := []store.Record{}
	for rows.Next() {
		var rec store.Record
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.Type, &rec.Title,
			&payload, &rec.Score, &rec.QuestionCount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec.Payload = json.RawMessage(payload)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return records, nil
}

func (s *Store) DeleteRecord(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM history_records WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteRecords removes the batch in one transaction: if any named record
// is missing the transaction rolls back and nothing is deleted.
func (s *Store) DeleteRecords(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Debug("delete transaction rollback", "error", err)
		}
	}()

	tag, err := tx.Exec(ctx,
		`DELETE FROM history_records WHERE owner_id = $1 AND id = ANY($2::uuid[])`,
		ownerID, ids)
	if err != nil {
		return fmt.Errorf("deleting batch: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return store.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing batch delete: %w", err)
	}

	s.logger.Debug("deleted history records", "count", len(ids))
	return nil
}

// Ping checks database connectivity. Used by readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close(context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
