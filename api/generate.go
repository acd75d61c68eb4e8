package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/generate"
	"github.com/lumi-ai/lumi/internal/log"
	"github.com/lumi-ai/lumi/internal/store"
)

// GenerateHandler handles generation, chat, and quiz grading endpoints.
//
// The handler fronts a single generation session: concurrent generate
// requests supersede each other the same way rapid-fire requests do in the
// interactive client. A superseded request gets 409 Conflict.
type GenerateHandler struct {
	session *generate.Session
	logger  log.Logger
}

// NewGenerateHandler creates a new generation handler.
func NewGenerateHandler(sess *generate.Session, logger log.Logger) *GenerateHandler {
	return &GenerateHandler{session: sess, logger: logger}
}

// RegisterRoutes registers generation routes on the given mux.
func (h *GenerateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/generate", h.generate)
	mux.HandleFunc("POST /api/chat", h.chat)
	mux.HandleFunc("POST /api/quiz/result", h.quizResult)
}

// GenerateRequest is the request body for POST /api/generate.
type GenerateRequest struct {
	SourceText string `json:"sourceText"`
	Type       string `json:"type"`
	Difficulty string `json:"difficulty,omitempty"`
}

// ArtifactResponse is the JSON shape of a generated artifact.
type ArtifactResponse struct {
	Type      artifact.Type          `json:"type"`
	Title     string                 `json:"title"`
	CreatedAt time.Time              `json:"createdAt"`
	Quiz      *artifact.Quiz         `json:"quiz,omitempty"`
	Content   string                 `json:"content,omitempty"`
	Chat      []artifact.ChatMessage `json:"chatHistory,omitempty"`
	MindMap   *artifact.MindMap      `json:"mindMap,omitempty"`
	Cards     *artifact.Flashcards   `json:"flashcards,omitempty"`
}

func artifactResponse(art *artifact.Artifact) ArtifactResponse {
	resp := ArtifactResponse{
		Type:      art.Type,
		Title:     art.Title,
		CreatedAt: art.CreatedAt,
		Quiz:      art.Quiz,
		MindMap:   art.MindMap,
		Cards:     art.Flashcards,
	}
	if art.Explanation != nil {
		resp.Content = art.Explanation.Body
		resp.Chat = art.Explanation.Chat
	}
	return resp
}

func (h *GenerateHandler) generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	kind := artifact.Type(req.Type)
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_type", "type must be one of quiz, explanation, mindmap, flashcards")
		return
	}

	art, err := h.session.Generate(r.Context(), kind, req.SourceText, generate.Options{Difficulty: req.Difficulty})
	if err != nil {
		h.writeGenerateError(w, err)
		return
	}
	if art == nil {
		// Superseded by a newer request.
		writeError(w, http.StatusConflict, "superseded", "request was superseded by a newer generation")
		return
	}

	writeJSON(w, http.StatusOK, artifactResponse(art))
}

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the response body for POST /api/chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

func (h *GenerateHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.session.SendChatMessage(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, generate.ErrNoExplanation) {
			writeError(w, http.StatusConflict, "no_explanation", "chat requires an active explanation; generate one first")
			return
		}
		if errors.Is(err, generate.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, "empty_input", "message must not be empty")
			return
		}
		h.writeGenerateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

// QuizResultRequest is the request body for POST /api/quiz/result.
type QuizResultRequest struct {
	Answers []int `json:"answers"`
}

func (h *GenerateHandler) quizResult(w http.ResponseWriter, r *http.Request) {
	var req QuizResultRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.session.SaveQuizResult(r.Context(), req.Answers)
	if err != nil {
		if errors.Is(err, generate.ErrNoQuiz) {
			writeError(w, http.StatusConflict, "no_quiz", "grading requires an active quiz; generate one first")
			return
		}
		h.logger.Error("failed to save quiz result", "error", err)
		writeError(w, http.StatusInternalServerError, "store_error", "failed to save quiz result")
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// writeGenerateError maps session errors to HTTP status codes.
func (h *GenerateHandler) writeGenerateError(w http.ResponseWriter, err error) {
	if errors.Is(err, generate.ErrEmptyInput) {
		writeError(w, http.StatusBadRequest, "empty_input", "source text must not be empty")
		return
	}

	var transport *generate.TransportError
	if errors.As(err, &transport) {
		switch transport.Kind {
		case generate.KindRateLimited:
			writeError(w, http.StatusTooManyRequests, "rate_limited", "the model is rate limited, try again shortly")
		case generate.KindQuotaExceeded:
			writeError(w, http.StatusTooManyRequests, "quota_exceeded", "the model quota is exhausted")
		default:
			h.logger.Error("generation failed", "error", err)
			writeError(w, http.StatusBadGateway, "model_error", "the model call failed")
		}
		return
	}

	var parse *generate.ParseError
	if errors.As(err, &parse) {
		h.logger.Error("generation returned malformed output", "error", err)
		writeError(w, http.StatusBadGateway, "malformed_output", "the model returned output that could not be parsed")
		return
	}

	h.logger.Error("generation failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "generation failed")
}

// recordSummary trims a stored record for list responses: payloads can be
// large, so listings carry metadata only.
type recordSummary struct {
	ID            string        `json:"id"`
	Type          artifact.Type `json:"type"`
	Title         string        `json:"title"`
	Score         *int          `json:"score,omitempty"`
	QuestionCount *int          `json:"questionCount,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func summarize(recs []store.Record) []recordSummary {
	out := make([]recordSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, recordSummary{
			ID:            rec.ID,
			Type:          rec.Type,
			Title:         rec.Title,
			Score:         rec.Score,
			QuestionCount: rec.QuestionCount,
			CreatedAt:     rec.CreatedAt,
		})
	}
	return out
}
