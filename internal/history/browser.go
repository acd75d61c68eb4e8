// Package history implements the browsing controller over a user's stored
// generation records: incremental filtered retrieval, debounced prefix
// search, recency grouping, multi-select deletion, and a detail drawer that
// can hand a record back for rehydration.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/lifecycle"
	"github.com/lumi-ai/lumi/internal/store"
)

// PageSize is how many records one page holds.
const PageSize = 15

// SearchDebounce is the trailing-edge delay between the last keystroke and
// the effective search query.
const SearchDebounce = 475 * time.Millisecond

// State is the browser's load state.
type State int

const (
	// StateIdle means the current pages are settled.
	StateIdle State = iota
	// StateLoading means a page request is outstanding.
	StateLoading
	// StateError means the last load failed. Error is sticky: further
	// automatic loads are suppressed until a filter, sort, or search
	// change clears it.
	StateError
)

// ErrQueryConfig marks a load failure caused by the store rejecting the
// query shape rather than by a transient fault. Retrying the same query
// cannot succeed; the parameters have to change.
var ErrQueryConfig = errors.New("history query rejected by store")

// Store is the slice of the document store the browser needs.
type Store interface {
	SearchRecords(ctx context.Context, ownerID string, q store.Query) ([]store.Record, error)
	ListAllRecords(ctx context.Context, ownerID string) ([]store.Record, error)
	DeleteRecord(ctx context.Context, ownerID, id string) error
	DeleteRecords(ctx context.Context, ownerID string, ids []string) error
}

// Browser is the history controller for one signed-in user.
//
// Browser is safe for concurrent use. A generation counter guards shared
// state against stale pages: any filter, sort, or search change bumps the
// counter, and a page arriving under an old counter value is discarded.
type Browser struct {
	store    Store
	ownerID  string
	pageSize int
	logger   *slog.Logger

	// baseCtx parents the loads triggered by the search debouncer, which
	// fire outside any caller's call frame.
	baseCtx context.Context

	debouncer *lifecycle.Debouncer[string]

	// onRerun receives the drawer record when the user asks to re-run it.
	onRerun func(store.Record)

	mu         sync.Mutex
	state      State
	lastErr    error
	records    []store.Record
	cursor     *store.Cursor
	hasMore    bool
	gen        uint64
	typeFilter artifact.Type
	sort       store.Sort
	search     string

	selectionMode bool
	selected      map[string]struct{}

	drawer *store.Record
}

// Option configures a Browser.
type Option func(*Browser)

// WithPageSize overrides the default page size.
func WithPageSize(n int) Option {
	return func(b *Browser) { b.pageSize = n }
}

// WithRerun installs the rehydration callback invoked by Rerun.
func WithRerun(fn func(store.Record)) Option {
	return func(b *Browser) { b.onRerun = fn }
}

// WithDebounce overrides the search debounce delay (tests).
func WithDebounce(d time.Duration) Option {
	return func(b *Browser) {
		b.debouncer = lifecycle.NewDebouncer(d, b.applySearch)
	}
}

// New creates a browser for ownerID. ctx parents debounce-triggered loads
// and should span the browser's lifetime.
func New(ctx context.Context, st Store, ownerID string, logger *slog.Logger, opts ...Option) *Browser {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Browser{
		store:    st,
		ownerID:  ownerID,
		pageSize: PageSize,
		logger:   logger,
		baseCtx:  ctx,
		hasMore:  true,
		sort:     store.Sort{Field: store.SortByCreatedAt, Desc: true},
		selected: make(map[string]struct{}),
	}
	b.debouncer = lifecycle.NewDebouncer(SearchDebounce, b.applySearch)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Close stops the search debouncer.
func (b *Browser) Close() {
	b.debouncer.Stop()
}

// Load resets accumulated records and fetches page 1 for the current
// filter, sort, and search parameters.
func (b *Browser) Load(ctx context.Context) error {
	b.mu.Lock()
	gen, q := b.resetLocked()
	b.mu.Unlock()
	return b.fetch(ctx, gen, q, false)
}

// LoadMore fetches the page after the current cursor and appends it.
// A strict no-op when a load is outstanding, the browser is in the sticky
// error state, or hasMore is false.
func (b *Browser) LoadMore(ctx context.Context) error {
	b.mu.Lock()
	if b.state != StateIdle || !b.hasMore {
		b.mu.Unlock()
		return nil
	}
	b.state = StateLoading
	gen := b.gen
	q := b.queryLocked()
	b.mu.Unlock()
	return b.fetch(ctx, gen, q, true)
}

// SetTypeFilter restricts the list to one artifact type; empty means all.
// Always resets records and cursor and reloads page 1, clearing any sticky
// error.
func (b *Browser) SetTypeFilter(ctx context.Context, t artifact.Type) error {
	b.mu.Lock()
	b.typeFilter = t
	gen, q := b.resetLocked()
	b.mu.Unlock()
	return b.fetch(ctx, gen, q, false)
}

// SetSort changes the ordering and reloads page 1. While a search is
// active the effective ordering stays forced to title ascending; the
// requested sort takes effect when the search is cleared.
func (b *Browser) SetSort(ctx context.Context, s store.Sort) error {
	b.mu.Lock()
	b.sort = s
	gen, q := b.resetLocked()
	b.mu.Unlock()
	return b.fetch(ctx, gen, q, false)
}

// SetSearch feeds one keystroke of search input. The effective query only
// changes after the input pauses for the debounce delay; every call inside
// the window restarts it.
func (b *Browser) SetSearch(raw string) {
	b.debouncer.Trigger(raw)
}

// SearchNow applies a search term immediately, bypassing the debounce.
func (b *Browser) SearchNow(ctx context.Context, term string) error {
	b.mu.Lock()
	if term == b.search {
		b.mu.Unlock()
		return nil
	}
	b.search = term
	gen, q := b.resetLocked()
	b.mu.Unlock()
	return b.fetch(ctx, gen, q, false)
}

// applySearch is the debouncer callback.
func (b *Browser) applySearch(term string) {
	if err := b.SearchNow(b.baseCtx, term); err != nil {
		b.logger.Warn("debounced search failed", "term", term, "error", err)
	}
}

// resetLocked discards accumulated state, bumps the generation counter and
// builds the page-1 query. Caller holds b.mu.
func (b *Browser) resetLocked() (uint64, store.Query) {
	b.gen++
	b.records = nil
	b.cursor = nil
	b.hasMore = true
	b.state = StateLoading
	b.lastErr = nil
	return b.gen, b.queryLocked()
}

// queryLocked builds the store query for the next page. The limit asks for
// one record beyond the page so hasMore reflects actual remaining data
// rather than a full-page guess. Caller holds b.mu.
func (b *Browser) queryLocked() store.Query {
	return BuildQuery(b.search, b.typeFilter, b.sort, b.pageSize, b.cursor)
}

func (b *Browser) fetch(ctx context.Context, gen uint64, q store.Query, appendPage bool) error {
	recs, err := b.store.SearchRecords(ctx, b.ownerID, q)

	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.gen {
		// Superseded by a newer reset; this page must not touch state.
		return nil
	}

	if err != nil {
		b.state = StateError
		if errors.Is(err, store.ErrQueryUnsupported) {
			err = fmt.Errorf("%w: %v", ErrQueryConfig, err)
		}
		b.lastErr = err
		return err
	}

	b.state = StateIdle
	b.hasMore = len(recs) > b.pageSize
	if b.hasMore {
		recs = recs[:b.pageSize]
	}
	if appendPage {
		b.records = append(b.records, recs...)
	} else {
		b.records = recs
	}
	if len(recs) > 0 {
		b.cursor = store.CursorFrom(recs[len(recs)-1])
	}
	return nil
}

// Records returns the accumulated pages in display order.
func (b *Browser) Records() []store.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]store.Record, len(b.records))
	copy(out, b.records)
	return out
}

// State returns the current load state.
func (b *Browser) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Err returns the sticky load error, or nil.
func (b *Browser) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// HasMore reports whether another page may exist.
func (b *Browser) HasMore() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hasMore
}
