// Package generate drives one study session against the model API: it owns
// the active artifact, the single-in-flight discipline per request lane, and
// the write of each successful result to history.
//
// There are two independent lanes: main generation and explanation chat.
// Issuing a new request on a lane cancels that lane's outstanding request;
// a superseded request's resolution is discarded without touching state.
// Cancellation is never surfaced as an error.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/lifecycle"
	"github.com/lumi-ai/lumi/internal/store"
)

// RecordWriter is the slice of the document store the session needs.
type RecordWriter interface {
	InsertRecord(ctx context.Context, rec store.Record) (store.Record, error)
}

// Models names the two model tiers the session calls.
type Models struct {
	Flash     string // larger model, used for explanations
	FlashLite string // lighter model, used for everything else
}

// DefaultModels returns the free-tier friendly defaults.
func DefaultModels() Models {
	return Models{
		Flash:     "googleai/gemini-2.5-flash",
		FlashLite: "googleai/gemini-2.5-flash-lite",
	}
}

// Options tunes a single generation request.
type Options struct {
	// Difficulty is Easy, Medium or Hard. Empty means Medium.
	Difficulty string
}

func (o Options) difficulty() string {
	if o.Difficulty == "" {
		return "Medium"
	}
	return o.Difficulty
}

// Session is the generation controller for one signed-in user.
//
// Session is safe for concurrent use by multiple goroutines; the active
// artifact and error state are guarded by a mutex and only ever mutated by
// the request that is still live on its lane.
type Session struct {
	g       *genkit.Genkit
	records RecordWriter
	ownerID string
	models  Models
	retry   RetryConfig
	limiter *rate.Limiter
	logger  *slog.Logger

	mu          sync.Mutex
	main        *lifecycle.TokenSource
	chat        *lifecycle.TokenSource
	active      *artifact.Artifact
	lastErr     error
	difficulty  string
	mainLoading bool
	chatLoading bool

	persistWG sync.WaitGroup
}

// New creates a session for ownerID. records receives the history write on
// every successful generation. limiter may be nil to disable client-side
// rate limiting (tests).
func New(g *genkit.Genkit, records RecordWriter, ownerID string, models Models, limiter *rate.Limiter, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		g:          g,
		records:    records,
		ownerID:    ownerID,
		models:     models,
		retry:      DefaultRetryConfig(),
		limiter:    limiter,
		logger:     logger,
		main:       lifecycle.NewTokenSource(),
		chat:       lifecycle.NewTokenSource(),
		difficulty: "Medium",
	}
}

// SetRetryConfig replaces the retry policy for model calls. Call before the
// first generation; the policy is not guarded by the session mutex.
func (s *Session) SetRetryConfig(cfg RetryConfig) {
	s.retry = cfg
}

// Generate runs one generation request on the main lane. Any outstanding
// main request is cancelled first. On success the returned artifact replaces
// the active one and a history record is written asynchronously. A superseded
// request returns (nil, nil).
func (s *Session) Generate(ctx context.Context, kind artifact.Type, sourceText string, opts Options) (*artifact.Artifact, error) {
	sourceText = strings.TrimSpace(sourceText)
	if sourceText == "" {
		return nil, ErrEmptyInput
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown artifact kind %q", kind)
	}

	s.mu.Lock()
	tok, reqCtx := s.main.Issue(ctx)
	s.mainLoading = true
	s.lastErr = nil
	s.difficulty = opts.difficulty()
	s.mu.Unlock()

	spec := buildPrompt(kind, sourceText, opts.difficulty())
	resp, err := s.call(reqCtx, spec)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.main.Live(tok) {
		// A newer request owns the lane; this resolution is discarded.
		return nil, nil
	}
	s.mainLoading = false

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, nil
		}
		terr := classifyTransport(err)
		s.lastErr = terr
		return nil, terr
	}

	art, err := s.parseResponse(kind, sourceText, resp.Text())
	if err != nil {
		s.lastErr = err
		return nil, err
	}

	s.active = art
	s.persistAsync(art)
	return art, nil
}

// SendChatMessage asks a follow-up question against the active explanation.
// The user's message is appended to the transcript before the remote call
// resolves, so it stays visible even if the reply is superseded or fails.
// A superseded request returns ("", nil).
func (s *Session) SendChatMessage(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyInput
	}

	s.mu.Lock()
	if s.active == nil || s.active.Type != artifact.TypeExplanation {
		s.mu.Unlock()
		return "", ErrNoExplanation
	}
	exp := s.active.Explanation
	exp.Chat = append(exp.Chat, artifact.ChatMessage{Role: artifact.RoleUser, Text: message})
	history := make([]artifact.ChatMessage, len(exp.Chat))
	copy(history, exp.Chat)
	difficulty := s.difficulty
	tok, reqCtx := s.chat.Issue(ctx)
	s.chatLoading = true
	s.mu.Unlock()

	resp, err := s.callWithRetry(reqCtx, []ai.GenerateOption{
		ai.WithModelName(s.models.FlashLite),
		ai.WithSystem(chatSystemPrompt(difficulty)),
		ai.WithMessages(chatToMessages(history)...),
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.chat.Live(tok) {
		return "", nil
	}
	s.chatLoading = false

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", nil
		}
		terr := classifyTransport(err)
		s.lastErr = terr
		return "", terr
	}

	reply := strings.TrimSpace(resp.Text())
	if reply != "" && s.active != nil && s.active.Type == artifact.TypeExplanation {
		s.active.Explanation.Chat = append(s.active.Explanation.Chat,
			artifact.ChatMessage{Role: artifact.RoleModel, Text: reply})
	}
	return reply, nil
}

// Reset cancels both lanes and clears the artifact and error state. Nothing
// is persisted.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.main.Cancel()
	s.chat.Cancel()
	s.active = nil
	s.lastErr = nil
	s.mainLoading = false
	s.chatLoading = false
}

// Rehydrate loads a stored record back into the session as the active
// artifact without generating. The record's payload is re-validated.
func (s *Session) Rehydrate(rec store.Record) error {
	art, err := artifact.Parse(rec.Type, rec.Payload)
	if err != nil {
		return fmt.Errorf("rehydrating record %s: %w", rec.ID, err)
	}
	if art.Title == "" {
		art.Title = rec.Title
	}
	art.CreatedAt = rec.CreatedAt

	s.mu.Lock()
	defer s.mu.Unlock()
	s.main.Cancel()
	s.chat.Cancel()
	s.active = art
	s.lastErr = nil
	s.mainLoading = false
	s.chatLoading = false
	return nil
}

// SaveQuizResult grades a finished practice run against the active quiz and
// persists a scored copy as a new history record. The original record is
// never mutated.
func (s *Session) SaveQuizResult(ctx context.Context, answers []int) (store.Record, error) {
	s.mu.Lock()
	if s.active == nil || s.active.Type != artifact.TypeQuiz {
		s.mu.Unlock()
		return store.Record{}, ErrNoQuiz
	}
	art := s.active
	s.mu.Unlock()

	score := art.Quiz.Grade(answers)
	count := len(art.Quiz.Questions)

	payload, err := art.Payload()
	if err != nil {
		return store.Record{}, fmt.Errorf("encoding quiz payload: %w", err)
	}
	rec, err := s.records.InsertRecord(ctx, store.Record{
		OwnerID:       s.ownerID,
		Type:          artifact.TypeQuiz,
		Title:         art.Title,
		Payload:       payload,
		Score:         &score,
		QuestionCount: &count,
	})
	if err != nil {
		return store.Record{}, fmt.Errorf("saving quiz result: %w", err)
	}
	return rec, nil
}

// Active returns the current artifact, or nil.
func (s *Session) Active() *artifact.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Err returns the last surfaced error, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Loading reports whether the named lanes have an outstanding request.
func (s *Session) Loading() (main, chat bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mainLoading, s.chatLoading
}

// Flush waits for pending asynchronous history writes. Call before process
// exit so a just-generated record is not lost.
func (s *Session) Flush() {
	s.persistWG.Wait()
}

func (s *Session) call(ctx context.Context, spec promptSpec) (*ai.ModelResponse, error) {
	model := s.models.FlashLite
	if spec.useFlash {
		model = s.models.Flash
	}
	opts := []ai.GenerateOption{
		ai.WithModelName(model),
		ai.WithPrompt(spec.text),
	}
	if spec.schema != nil {
		opts = append(opts, ai.WithConfig(&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   spec.schema,
		}))
	}
	return s.callWithRetry(ctx, opts)
}

// parseResponse turns the raw model text into a validated artifact.
// Explanations are free text; the structured kinds are decoded after fence
// stripping and validated by artifact.Parse.
func (s *Session) parseResponse(kind artifact.Type, sourceText, text string) (*artifact.Artifact, error) {
	if kind == artifact.TypeExplanation {
		body := strings.TrimSpace(text)
		if body == "" {
			return nil, &ParseError{Err: fmt.Errorf("empty explanation response")}
		}
		return &artifact.Artifact{
			Type:        artifact.TypeExplanation,
			Title:       explanationTitle(sourceText),
			CreatedAt:   time.Now(),
			Explanation: &artifact.Explanation{Body: body, Chat: seedChat(body)},
		}, nil
	}

	art, err := artifact.Parse(kind, []byte(cleanFences(text)))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if art.Title == "" {
		art.Title = fallbackTitle(kind)
	}
	art.CreatedAt = time.Now()
	return art, nil
}

// persistAsync writes the history record off the request path. Failures are
// logged, not surfaced: the artifact is already on screen.
func (s *Session) persistAsync(art *artifact.Artifact) {
	payload, err := persistedPayload(art)
	if err != nil {
		s.logger.Warn("failed to encode history payload", "type", art.Type, "error", err)
		return
	}
	rec := store.Record{
		OwnerID: s.ownerID,
		Type:    art.Type,
		Title:   art.Title,
		Payload: payload,
	}
	s.persistWG.Add(1)
	go func() {
		defer s.persistWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.records.InsertRecord(ctx, rec); err != nil {
			s.logger.Warn("failed to persist history record",
				"type", rec.Type, "title", rec.Title, "error", err)
		}
	}()
}

// persistedPayload snapshots the payload at generation time. Explanations
// are stored without the seeded chat scaffold.
func persistedPayload(art *artifact.Artifact) ([]byte, error) {
	if art.Type == artifact.TypeExplanation {
		snap := &artifact.Artifact{
			Type:        art.Type,
			Title:       art.Title,
			Explanation: &artifact.Explanation{Body: art.Explanation.Body},
		}
		return snap.Payload()
	}
	return art.Payload()
}

// seedChat primes the follow-up transcript: the explanation rides along as
// conversational context, with a model greeting inviting questions.
func seedChat(body string) []artifact.ChatMessage {
	return []artifact.ChatMessage{
		{Role: artifact.RoleUser, Text: `Here is the context for our conversation: """` + body + `"""`},
		{Role: artifact.RoleModel, Text: "Great! I've read the explanation. What would you like to know?"},
	}
}

func chatToMessages(history []artifact.ChatMessage) []*ai.Message {
	msgs := make([]*ai.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case artifact.RoleModel:
			msgs = append(msgs, ai.NewModelTextMessage(m.Text))
		default:
			msgs = append(msgs, ai.NewUserTextMessage(m.Text))
		}
	}
	return msgs
}

func explanationTitle(sourceText string) string {
	runes := []rune(sourceText)
	if len(runes) > 40 {
		return "Explanation: " + string(runes[:40]) + "..."
	}
	return "Explanation: " + sourceText
}

func fallbackTitle(kind artifact.Type) string {
	switch kind {
	case artifact.TypeQuiz:
		return "New Quiz"
	case artifact.TypeMindMap:
		return "Mind Map"
	case artifact.TypeFlashcards:
		return "Flashcards"
	default:
		return "Untitled"
	}
}

// cleanFences strips a markdown code fence around a JSON response.
func cleanFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
