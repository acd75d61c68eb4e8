package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumi-ai/lumi/internal/artifact"
)

const quizJSON = `{
	"quizTitle": "Photosynthesis Basics",
	"questions": [
		{
			"questionText": "What gas do plants absorb?",
			"options": ["Oxygen", "Carbon dioxide", "Nitrogen"],
			"correctAnswerIndex": 1,
			"explanation": "Plants take in CO2 for photosynthesis."
		}
	]
}`

func TestGenerate_Quiz(t *testing.T) {
	handler, mock, _ := newTestServer(t)
	mock.AddResponse("quiz", quizJSON)

	w := doJSON(t, handler, http.MethodPost, "/api/generate", GenerateRequest{
		SourceText: "Photosynthesis converts light into chemical energy.",
		Type:       "quiz",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ArtifactResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, artifact.TypeQuiz, resp.Type)
	require.NotNil(t, resp.Quiz)
	assert.Equal(t, "Photosynthesis Basics", resp.Quiz.Title)
	require.Len(t, resp.Quiz.Questions, 1)
	assert.Equal(t, 1, resp.Quiz.Questions[0].CorrectIndex)
}

func TestGenerate_Explanation(t *testing.T) {
	handler, _, _ := newTestServer(t)

	w := doJSON(t, handler, http.MethodPost, "/api/generate", GenerateRequest{
		SourceText: "Photosynthesis converts light into chemical energy.",
		Type:       "explanation",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ArtifactResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, artifact.TypeExplanation, resp.Type)
	assert.NotEmpty(t, resp.Content)
	assert.Empty(t, resp.Quiz)
}

func TestGenerate_RejectsInvalidType(t *testing.T) {
	handler, _, _ := newTestServer(t)

	w := doJSON(t, handler, http.MethodPost, "/api/generate", GenerateRequest{
		SourceText: "some text",
		Type:       "podcast",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerate_RejectsEmptySource(t *testing.T) {
	handler, _, _ := newTestServer(t)

	w := doJSON(t, handler, http.MethodPost, "/api/generate", GenerateRequest{
		SourceText: "   ",
		Type:       "quiz",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "empty_input", resp.Error)
}

func TestGenerate_RateLimitMapsTo429(t *testing.T) {
	handler, mock, _ := newTestServer(t)
	mock.FailWith(errors.New("429 too many requests"))

	w := doJSON(t, handler, http.MethodPost, "/api/generate", GenerateRequest{
		SourceText: "some text",
		Type:       "explanation",
	})
	// Rate limit errors retry then surface as 429; the mock keeps failing.
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rate_limited", resp.Error)
}

func TestGenerate_MalformedOutputMapsTo502(t *testing.T) {
	handler, mock, _ := newTestServer(t)
	mock.AddResponse("quiz", `{"quizTitle": "broken"`)

	w := doJSON(t, handler, http.MethodPost, "/api/generate", GenerateRequest{
		SourceText: "some text",
		Type:       "quiz",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "malformed_output", resp.Error)
}

func TestChat_RequiresExplanation(t *testing.T) {
	handler, _, _ := newTestServer(t)

	w := doJSON(t, handler, http.MethodPost, "/api/chat", ChatRequest{Message: "why?"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestChat_AfterExplanation(t *testing.T) {
	handler, mock, _ := newTestServer(t)

	w := doJSON(t, handler, http.MethodPost, "/api/generate", GenerateRequest{
		SourceText: "Photosynthesis converts light into chemical energy.",
		Type:       "explanation",
	})
	require.Equal(t, http.StatusOK, w.Code)

	mock.AddResponse("why", "Because chlorophyll absorbs red and blue light.")
	w = doJSON(t, handler, http.MethodPost, "/api/chat", ChatRequest{Message: "why is it green?"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Because chlorophyll absorbs red and blue light.", resp.Reply)
}

func TestQuizResult_GradesAndPersists(t *testing.T) {
	handler, mock, st := newTestServer(t)
	mock.AddResponse("quiz", quizJSON)

	w := doJSON(t, handler, http.MethodPost, "/api/generate", GenerateRequest{
		SourceText: "Photosynthesis converts light into chemical energy.",
		Type:       "quiz",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, handler, http.MethodPost, "/api/quiz/result", QuizResultRequest{Answers: []int{1}})
	require.Equal(t, http.StatusCreated, w.Code)

	var rec struct {
		Score         *int `json:"score"`
		QuestionCount *int `json:"questionCount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	require.NotNil(t, rec.Score)
	require.NotNil(t, rec.QuestionCount)
	assert.Equal(t, 1, *rec.Score)
	assert.Equal(t, 1, *rec.QuestionCount)

	recs, err := st.ListAllRecords(context.Background(), testOwner)
	require.NoError(t, err)
	// One auto-persisted quiz record and one scored practice record.
	assert.Len(t, recs, 2)
}

func TestQuizResult_RequiresQuiz(t *testing.T) {
	handler, _, _ := newTestServer(t)

	w := doJSON(t, handler, http.MethodPost, "/api/quiz/result", QuizResultRequest{Answers: []int{0}})
	assert.Equal(t, http.StatusConflict, w.Code)
}
