package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/store"
	"github.com/lumi-ai/lumi/internal/store/memstore"
)

func seedHistory(t *testing.T, st *memstore.Store, n int) []store.Record {
	t.Helper()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	recs := make([]store.Record, 0, n)
	for i := 0; i < n; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		st.SetClock(func() time.Time { return at })

		kind := artifact.TypeQuiz
		if i%2 == 1 {
			kind = artifact.TypeFlashcards
		}
		rec, err := st.InsertRecord(context.Background(), store.Record{
			OwnerID: testOwner,
			Type:    kind,
			Title:   fmt.Sprintf("Record %02d", i),
			Payload: json.RawMessage(`{}`),
		})
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	st.SetClock(time.Now)
	return recs
}

func decodePage(t *testing.T, w interface{ Bytes() []byte }) HistoryPage {
	t.Helper()
	var page HistoryPage
	require.NoError(t, json.Unmarshal(w.Bytes(), &page))
	return page
}

func TestHistory_ListWalksAllPages(t *testing.T) {
	handler, _, st := newTestServer(t)
	seedHistory(t, st, 12)

	seen := map[string]bool{}
	path := "/api/history?limit=5"
	pages := 0

	for {
		w := doJSON(t, handler, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decodePage(t, w.Body)
		pages++

		for _, rec := range page.Records {
			assert.False(t, seen[rec.ID], "record %s listed twice", rec.ID)
			seen[rec.ID] = true
		}
		if !page.HasMore {
			break
		}
		require.NotNil(t, page.Next)
		path = fmt.Sprintf("/api/history?limit=5&afterId=%s&afterTitle=%s&afterCreated=%s",
			url.QueryEscape(page.Next.ID),
			url.QueryEscape(page.Next.Title),
			url.QueryEscape(page.Next.CreatedAt.Format(time.RFC3339Nano)))
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, seen, 12)
}

func TestHistory_ExactPageHasNoMore(t *testing.T) {
	handler, _, st := newTestServer(t)
	seedHistory(t, st, 5)

	w := doJSON(t, handler, http.MethodGet, "/api/history?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodePage(t, w.Body)

	assert.Len(t, page.Records, 5)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.Next)
}

func TestHistory_NewestFirstByDefault(t *testing.T) {
	handler, _, st := newTestServer(t)
	seedHistory(t, st, 3)

	w := doJSON(t, handler, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodePage(t, w.Body)

	require.Len(t, page.Records, 3)
	assert.Equal(t, "Record 02", page.Records[0].Title)
	assert.Equal(t, "Record 00", page.Records[2].Title)
}

func TestHistory_TypeFilter(t *testing.T) {
	handler, _, st := newTestServer(t)
	seedHistory(t, st, 6)

	w := doJSON(t, handler, http.MethodGet, "/api/history?type=flashcards", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodePage(t, w.Body)

	require.Len(t, page.Records, 3)
	for _, rec := range page.Records {
		assert.Equal(t, artifact.TypeFlashcards, rec.Type)
	}
}

func TestHistory_InvalidTypeRejected(t *testing.T) {
	handler, _, _ := newTestServer(t)

	w := doJSON(t, handler, http.MethodGet, "/api/history?type=podcast", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistory_SearchByPrefix(t *testing.T) {
	handler, _, st := newTestServer(t)
	for _, title := range []string{"Photosynthesis", "Physics Intro", "Chemistry"} {
		_, err := st.InsertRecord(context.Background(), store.Record{
			OwnerID: testOwner,
			Type:    artifact.TypeQuiz,
			Title:   title,
			Payload: json.RawMessage(`{}`),
		})
		require.NoError(t, err)
	}

	w := doJSON(t, handler, http.MethodGet, "/api/history?q=Ph", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodePage(t, w.Body)

	// Prefix search orders by title ascending.
	require.Len(t, page.Records, 2)
	assert.Equal(t, "Photosynthesis", page.Records[0].Title)
	assert.Equal(t, "Physics Intro", page.Records[1].Title)
}

func TestHistory_GetDetail(t *testing.T) {
	handler, _, st := newTestServer(t)
	recs := seedHistory(t, st, 2)

	w := doJSON(t, handler, http.MethodGet, "/api/history/"+recs[0].ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got store.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, recs[0].ID, got.ID)
	assert.JSONEq(t, `{}`, string(got.Payload))

	w = doJSON(t, handler, http.MethodGet, "/api/history/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistory_DeleteOne(t *testing.T) {
	handler, _, st := newTestServer(t)
	recs := seedHistory(t, st, 2)

	w := doJSON(t, handler, http.MethodDelete, "/api/history/"+recs[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, handler, http.MethodDelete, "/api/history/"+recs[0].ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	remaining, err := st.ListAllRecords(context.Background(), testOwner)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestHistory_DeleteBatchIsAtomic(t *testing.T) {
	handler, _, st := newTestServer(t)
	recs := seedHistory(t, st, 3)

	// One unknown ID fails the whole batch.
	w := doJSON(t, handler, http.MethodPost, "/api/history/delete", DeleteBatchRequest{
		IDs: []string{recs[0].ID, "does-not-exist"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	remaining, err := st.ListAllRecords(context.Background(), testOwner)
	require.NoError(t, err)
	assert.Len(t, remaining, 3)

	// Valid batch removes exactly the named records.
	w = doJSON(t, handler, http.MethodPost, "/api/history/delete", DeleteBatchRequest{
		IDs: []string{recs[0].ID, recs[2].ID},
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	remaining, err = st.ListAllRecords(context.Background(), testOwner)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, recs[1].ID, remaining[0].ID)
}

func TestHistory_ClearAll(t *testing.T) {
	handler, _, st := newTestServer(t)
	seedHistory(t, st, 4)

	w := doJSON(t, handler, http.MethodDelete, "/api/history", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	remaining, err := st.ListAllRecords(context.Background(), testOwner)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	// Clearing an empty history is fine.
	w = doJSON(t, handler, http.MethodDelete, "/api/history", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
