package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/history"
	"github.com/lumi-ai/lumi/internal/log"
	"github.com/lumi-ai/lumi/internal/store"
)

// History pagination bounds.
const (
	DefaultHistoryLimit = 15
	MaxHistoryLimit     = 100
)

// HistoryHandler handles history search and deletion endpoints.
type HistoryHandler struct {
	store   store.Store
	ownerID string
	logger  log.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(st store.Store, ownerID string, logger log.Logger) *HistoryHandler {
	return &HistoryHandler{store: st, ownerID: ownerID, logger: logger}
}

// RegisterRoutes registers history routes on the given mux.
func (h *HistoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/history", h.list)
	mux.HandleFunc("GET /api/history/{id}", h.get)
	mux.HandleFunc("DELETE /api/history/{id}", h.deleteOne)
	mux.HandleFunc("POST /api/history/delete", h.deleteBatch)
	mux.HandleFunc("DELETE /api/history", h.clearAll)
}

// HistoryPage is the response body for GET /api/history.
type HistoryPage struct {
	Records []recordSummary `json:"records"`
	HasMore bool            `json:"hasMore"`

	// Next carries the cursor fields for the follow-up request. Present
	// only when HasMore is true.
	Next *PageCursor `json:"next,omitempty"`
}

// PageCursor is the resume point echoed back as query parameters:
// afterId, afterTitle, afterCreated.
type PageCursor struct {
	ID        string    `json:"afterId"`
	Title     string    `json:"afterTitle"`
	CreatedAt time.Time `json:"afterCreated"`
}

// list searches the owner's history.
// Query parameters:
//   - type: restrict to one artifact type (quiz, explanation, mindmap, flashcards)
//   - q: title prefix search (forces title-ascending order)
//   - sort: "created_at" (default, newest first) or "title"
//   - limit: page size (default 15, max 100)
//   - afterId, afterTitle, afterCreated: resume cursor from a previous page
func (h *HistoryHandler) list(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	kind := artifact.Type(params.Get("type"))
	if kind != "" && !kind.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_type", "unknown artifact type "+strconv.Quote(string(kind)))
		return
	}

	limit := parseIntParam(r, "limit", DefaultHistoryLimit, 1, MaxHistoryLimit)

	sort := store.Sort{Field: store.SortByCreatedAt, Desc: true}
	if params.Get("sort") == "title" {
		sort = store.Sort{Field: store.SortByTitle}
	}

	var after *store.Cursor
	if id := params.Get("afterId"); id != "" {
		created, err := time.Parse(time.RFC3339Nano, params.Get("afterCreated"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_cursor", "afterCreated must be RFC 3339")
			return
		}
		after = &store.Cursor{ID: id, Title: params.Get("afterTitle"), CreatedAt: created}
	}

	query := history.BuildQuery(params.Get("q"), kind, sort, limit, after)
	recs, err := h.store.SearchRecords(r.Context(), h.ownerID, query)
	if err != nil {
		if errors.Is(err, store.ErrQueryUnsupported) {
			writeError(w, http.StatusBadRequest, "invalid_query", "this filter and sort combination is not supported")
			return
		}
		h.logger.Error("history search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "store_error", "failed to search history")
		return
	}

	page := HistoryPage{HasMore: len(recs) > limit}
	if page.HasMore {
		recs = recs[:limit]
	}
	page.Records = summarize(recs)
	if page.HasMore {
		cur := store.CursorFrom(recs[len(recs)-1])
		page.Next = &PageCursor{ID: cur.ID, Title: cur.Title, CreatedAt: cur.CreatedAt}
	}

	writeJSON(w, http.StatusOK, page)
}

// get returns one record with its full payload.
func (h *HistoryHandler) get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// The store has no point lookup; detail views always come from a page
	// already listed, so a bounded scan is acceptable here.
	recs, err := h.store.ListAllRecords(r.Context(), h.ownerID)
	if err != nil {
		h.logger.Error("history lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "store_error", "failed to load record")
		return
	}
	for _, rec := range recs {
		if rec.ID == id {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", "no such record")
}

func (h *HistoryHandler) deleteOne(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.store.DeleteRecord(r.Context(), h.ownerID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no such record")
			return
		}
		h.logger.Error("history delete failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "store_error", "failed to delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteBatchRequest is the request body for POST /api/history/delete.
type DeleteBatchRequest struct {
	IDs []string `json:"ids"`
}

// deleteBatch removes the named records in one atomic batch: either every
// record is removed or none are.
func (h *HistoryHandler) deleteBatch(w http.ResponseWriter, r *http.Request) {
	var req DeleteBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "empty_batch", "ids must not be empty")
		return
	}

	if err := h.store.DeleteRecords(r.Context(), h.ownerID, req.IDs); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "one or more records do not exist; nothing was deleted")
			return
		}
		h.logger.Error("history batch delete failed", "error", err, "count", len(req.IDs))
		writeError(w, http.StatusInternalServerError, "store_error", "failed to delete records")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clearAll removes the owner's entire history, ignoring any filter.
func (h *HistoryHandler) clearAll(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.ListAllRecords(r.Context(), h.ownerID)
	if err != nil {
		h.logger.Error("history clear failed", "error", err)
		writeError(w, http.StatusInternalServerError, "store_error", "failed to clear history")
		return
	}
	if len(recs) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	if err := h.store.DeleteRecords(r.Context(), h.ownerID, ids); err != nil {
		h.logger.Error("history clear failed", "error", err, "count", len(ids))
		writeError(w, http.StatusInternalServerError, "store_error", "failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseIntParam parses an integer query parameter with bounds checking.
func parseIntParam(r *http.Request, name string, defaultVal, min, max int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
