package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumi-ai/lumi/internal/generate"
	"github.com/lumi-ai/lumi/internal/log"
	"github.com/lumi-ai/lumi/internal/notes"
	"github.com/lumi-ai/lumi/internal/store/memstore"
	"github.com/lumi-ai/lumi/internal/testutil"
)

const testOwner = "owner-1"

// newTestServer wires a full server on a memory store with a mock model.
func newTestServer(t *testing.T) (http.Handler, *testutil.MockLLM, *memstore.Store) {
	t.Helper()
	logger := log.NewNop()

	g := genkit.Init(context.Background())
	mock := testutil.NewMockLLM("A detailed explanation of the topic.")
	mock.RegisterModel(g)

	st := memstore.New()
	models := generate.Models{Flash: testutil.ModelName, FlashLite: testutil.ModelName}
	sess := generate.New(g, st, testOwner, models, nil, testutil.DiscardLogger())
	sess.SetRetryConfig(generate.RetryConfig{MaxRetries: 0, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond})
	t.Cleanup(sess.Flush)

	noteSvc := notes.New(st, testOwner, testutil.DiscardLogger())

	srv := NewServer(sess, st, noteSvc, testOwner, nil, logger)
	return srv.Handler(), mock, st
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestServer_HealthEndpoints(t *testing.T) {
	handler, _, _ := newTestServer(t)

	t.Run("GET /health returns 200", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("GET /ready returns 200 with nil check", func(t *testing.T) {
		w := doJSON(t, handler, http.MethodGet, "/ready", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ready", w.Body.String())
	})
}

func TestServer_ReadinessFailure(t *testing.T) {
	logger := log.NewNop()
	ready := func(context.Context) error { return errors.New("connection refused") }
	srv := NewServer(nil, nil, nil, testOwner, ready, logger)

	w := doJSON(t, srv.Handler(), http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_MiddlewareRecovery(t *testing.T) {
	logger := log.NewNop()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	handler := chain(mux, recoveryMiddleware(logger), loggingMiddleware(logger))

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServer_UnknownRoute(t *testing.T) {
	handler, _, _ := newTestServer(t)

	w := doJSON(t, handler, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotes_CRUD(t *testing.T) {
	handler, _, _ := newTestServer(t)

	// Create
	w := doJSON(t, handler, http.MethodPost, "/api/notes", CreateNoteRequest{
		Title:   "Photosynthesis",
		Content: "Light reactions happen in the thylakoid.",
		Tag:     "biology",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Photosynthesis", created.Title)

	// List
	w = doJSON(t, handler, http.MethodGet, "/api/notes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Equal(t, 1, listed.Total)

	// Patch content only
	newContent := "Updated content."
	w = doJSON(t, handler, http.MethodPatch, "/api/notes/"+created.ID, UpdateNoteRequest{
		Content: &newContent,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Photosynthesis", updated.Title)
	assert.Equal(t, "Updated content.", updated.Content)

	// Delete
	w = doJSON(t, handler, http.MethodDelete, "/api/notes/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Delete again -> 404
	w = doJSON(t, handler, http.MethodDelete, "/api/notes/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotes_CreateRejectsEmpty(t *testing.T) {
	handler, _, _ := newTestServer(t)

	w := doJSON(t, handler, http.MethodPost, "/api/notes", CreateNoteRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotes_EmptyPatchRejected(t *testing.T) {
	handler, _, _ := newTestServer(t)

	w := doJSON(t, handler, http.MethodPatch, "/api/notes/some-id", UpdateNoteRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 15},
		{"limit=5", 5},
		{"limit=abc", 15},
		{"limit=0", 1},
		{"limit=9999", 100},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/history?%s", tt.query), nil)
		got := parseIntParam(req, "limit", 15, 1, 100)
		assert.Equal(t, tt.want, got, "query %q", tt.query)
	}
}
