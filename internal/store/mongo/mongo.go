// Package mongo implements the document store on MongoDB using the official
// v2 driver. Records and notes live in two collections; pagination uses the
// same keyset predicate as the SQL driver so cursors behave identically
// across backends.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lumi-ai/lumi/internal/store"
)

const (
	colRecords = "history_records"
	colNotes   = "notes"
)

// Store implements store.Store backed by MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// New connects to MongoDB, verifies the connection and ensures indexes.
func New(ctx context.Context, uri, dbName string, logger *slog.Logger) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName), logger: logger}
	if err := s.ensureIndexes(ctx); err != nil {
		logger.Warn("failed to ensure mongodb indexes", "error", err)
	}
	return s, nil
}

// NewWithClient wraps an existing client, for integration tests.
func NewWithClient(client *mongo.Client, dbName string, logger *slog.Logger) *Store {
	return &Store{client: client, db: client.Database(dbName), logger: logger}
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colRecords: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "title", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "type", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colNotes: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.col(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating indexes on %s: %w", name, err)
		}
	}
	return nil
}

// wrapError maps driver errors onto the store's sentinel errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	return err
}

func findMany[T any](ctx context.Context, col *mongo.Collection, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	results := []T{}
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Store) InsertRecord(ctx context.Context, rec store.Record) (store.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	// BSON datetimes carry millisecond precision; truncate up front so the
	// returned record matches what a later read would see.
	rec.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := s.col(colRecords).InsertOne(ctx, rec); err != nil {
		return store.Record{}, fmt.Errorf("inserting record: %w", wrapError(err))
	}
	return rec, nil
}

func (s *Store) SearchRecords(ctx context.Context, ownerID string, q store.Query) ([]store.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	filter, sort := buildFilter(ownerID, q)
	opts := options.Find().SetSort(sort).SetLimit(int64(q.Limit))
	recs, err := findMany[store.Record](ctx, s.col(colRecords), filter, opts)
	if err != nil {
		return nil, fmt.Errorf("searching records: %w", err)
	}
	return recs, nil
}

func (s *Store) ListAllRecords(ctx context.Context, ownerID string) ([]store.Record, error) {
	filter := bson.D{{Key: "owner_id", Value: ownerID}}
	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	recs, err := findMany[store.Record](ctx, s.col(colRecords), filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return recs, nil
}

func (s *Store) DeleteRecord(ctx context.Context, ownerID, id string) error {
	res, err := s.col(colRecords).DeleteOne(ctx, bson.D{
		{Key: "_id", Value: id},
		{Key: "owner_id", Value: ownerID},
	})
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, wrapError(err))
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteRecords verifies the whole batch belongs to the owner before issuing
// the DeleteMany, so an unknown or foreign id fails the call without
// removing anything.
func (s *Store) DeleteRecords(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	filter := bson.D{
		{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}},
		{Key: "owner_id", Value: ownerID},
	}
	n, err := s.col(colRecords).CountDocuments(ctx, filter)
	if err != nil {
		return fmt.Errorf("checking record batch: %w", err)
	}
	if n != int64(len(ids)) {
		return store.ErrNotFound
	}
	if _, err := s.col(colRecords).DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("deleting record batch: %w", err)
	}
	return nil
}

func (s *Store) InsertNote(ctx context.Context, note store.Note) (store.Note, error) {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	note.CreatedAt = now
	note.UpdatedAt = now

	if _, err := s.col(colNotes).InsertOne(ctx, note); err != nil {
		return store.Note{}, fmt.Errorf("inserting note: %w", wrapError(err))
	}
	return note, nil
}

func (s *Store) UpdateNote(ctx context.Context, ownerID, id string, patch store.NotePatch) (store.Note, error) {
	set := bson.D{{Key: "updated_at", Value: time.Now().UTC().Truncate(time.Millisecond)}}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *patch.Content})
	}
	if patch.Tag != nil {
		set = append(set, bson.E{Key: "tag", Value: *patch.Tag})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var note store.Note
	err := s.col(colNotes).FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "owner_id", Value: ownerID}},
		bson.D{{Key: "$set", Value: set}},
		opts,
	).Decode(&note)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.Note{}, store.ErrNotFound
		}
		return store.Note{}, fmt.Errorf("updating note %s: %w", id, err)
	}
	return note, nil
}

func (s *Store) DeleteNote(ctx context.Context, ownerID, id string) error {
	res, err := s.col(colNotes).DeleteOne(ctx, bson.D{
		{Key: "_id", Value: id},
		{Key: "owner_id", Value: ownerID},
	})
	if err != nil {
		return fmt.Errorf("deleting note %s: %w", id, wrapError(err))
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListNotes(ctx context.Context, ownerID string) ([]store.Note, error) {
	filter := bson.D{{Key: "owner_id", Value: ownerID}}
	sort := bson.D{{Key: "updated_at", Value: -1}}
	notes, err := findMany[store.Note](ctx, s.col(colNotes), filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return notes, nil
}

// Ping checks database connectivity. Used by readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
