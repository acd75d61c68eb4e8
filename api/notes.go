package api

import (
	"errors"
	"net/http"

	"github.com/lumi-ai/lumi/internal/log"
	"github.com/lumi-ai/lumi/internal/notes"
	"github.com/lumi-ai/lumi/internal/store"
)

// Note validation constants.
const (
	MaxNoteTitleLength   = 200
	MaxNoteContentLength = 100_000
	MaxNoteTagLength     = 50
)

// NoteHandler handles note CRUD endpoints.
type NoteHandler struct {
	notes  *notes.Service
	logger log.Logger
}

// NewNoteHandler creates a new note handler.
func NewNoteHandler(svc *notes.Service, logger log.Logger) *NoteHandler {
	return &NoteHandler{notes: svc, logger: logger}
}

// RegisterRoutes registers note routes on the given mux.
func (h *NoteHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/notes", h.list)
	mux.HandleFunc("POST /api/notes", h.create)
	mux.HandleFunc("PATCH /api/notes/{id}", h.update)
	mux.HandleFunc("DELETE /api/notes/{id}", h.deleteOne)
}

func (h *NoteHandler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.notes.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list notes", "error", err)
		writeError(w, http.StatusInternalServerError, "store_error", "failed to list notes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"notes": all,
		"total": len(all),
	})
}

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tag     string `json:"tag,omitempty"`
}

func (h *NoteHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateNoteFields(req.Title, req.Content, req.Tag); msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_note", msg)
		return
	}

	note, err := h.notes.Create(r.Context(), req.Title, req.Content, req.Tag)
	if err != nil {
		if errors.Is(err, notes.ErrEmptyNote) {
			writeError(w, http.StatusBadRequest, "empty_note", "a note needs a title or content")
			return
		}
		h.logger.Error("failed to create note", "error", err)
		writeError(w, http.StatusInternalServerError, "store_error", "failed to create note")
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

// UpdateNoteRequest is the request body for a merge update. Absent fields
// are left untouched.
type UpdateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Tag     *string `json:"tag"`
}

func (h *NoteHandler) update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == nil && req.Content == nil && req.Tag == nil {
		writeError(w, http.StatusBadRequest, "empty_patch", "at least one of title, content, tag is required")
		return
	}
	if msg := validateNoteFields(deref(req.Title), deref(req.Content), deref(req.Tag)); msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_note", msg)
		return
	}

	note, err := h.notes.Update(r.Context(), id, store.NotePatch{
		Title:   req.Title,
		Content: req.Content,
		Tag:     req.Tag,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no such note")
			return
		}
		h.logger.Error("failed to update note", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "store_error", "failed to update note")
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) deleteOne(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.notes.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no such note")
			return
		}
		h.logger.Error("failed to delete note", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "store_error", "failed to delete note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateNoteFields(title, content, tag string) string {
	switch {
	case len(title) > MaxNoteTitleLength:
		return "title too long (max 200 characters)"
	case len(content) > MaxNoteContentLength:
		return "content too long (max 100000 characters)"
	case len(tag) > MaxNoteTagLength:
		return "tag too long (max 50 characters)"
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
