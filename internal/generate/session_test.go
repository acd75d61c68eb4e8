package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/firebase/genkit/go/genkit"

	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/store"
	"github.com/lumi-ai/lumi/internal/store/memstore"
	"github.com/lumi-ai/lumi/internal/testutil"
)

const testOwner = "owner-1"

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}

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

const flashcardsJSON = `{
	"title": "Photosynthesis Deck",
	"flashcards": [
		{"id": "1", "question": "Where does photosynthesis occur?", "answer": "Chloroplasts", "topic": "Biology"}
	]
}`

func newTestSession(t *testing.T) (*Session, *testutil.MockLLM, *memstore.Store) {
	t.Helper()
	g := genkit.Init(context.Background())
	mock := testutil.NewMockLLM("This is a detailed explanation of the topic.")
	mock.RegisterModel(g)

	st := memstore.New()
	models := Models{Flash: testutil.ModelName, FlashLite: testutil.ModelName}
	s := New(g, st, testOwner, models, nil, testutil.DiscardLogger())
	return s, mock, st
}

func TestGenerateQuiz(t *testing.T) {
	s, mock, st := newTestSession(t)
	mock.AddResponse("quiz", quizJSON)

	art, err := s.Generate(context.Background(), artifact.TypeQuiz, "Photosynthesis is...", Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if art.Type != artifact.TypeQuiz {
		t.Errorf("artifact type = %q, want quiz", art.Type)
	}
	if art.Title != "Photosynthesis Basics" {
		t.Errorf("artifact title = %q", art.Title)
	}
	if got := s.Active(); got != art {
		t.Error("Active() does not return the generated artifact")
	}

	s.Flush()
	recs, err := st.ListAllRecords(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("ListAllRecords() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("persisted %d records, want 1", len(recs))
	}
	if recs[0].Type != artifact.TypeQuiz || recs[0].Title != "Photosynthesis Basics" {
		t.Errorf("persisted record = %+v", recs[0])
	}
}

func TestGenerateEmptyInput(t *testing.T) {
	s, mock, st := newTestSession(t)

	_, err := s.Generate(context.Background(), artifact.TypeQuiz, "   ", Options{})
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("Generate() error = %v, want ErrEmptyInput", err)
	}
	if len(mock.Calls()) != 0 {
		t.Error("a model request was issued for empty input")
	}
	if s.Active() != nil {
		t.Error("state was mutated for empty input")
	}
	s.Flush()
	recs, _ := st.ListAllRecords(context.Background(), testOwner)
	if len(recs) != 0 {
		t.Error("a record was persisted for empty input")
	}
}

func TestGenerateStripsCodeFences(t *testing.T) {
	s, mock, _ := newTestSession(t)
	mock.AddResponse("quiz", "```json\n"+quizJSON+"\n```")

	art, err := s.Generate(context.Background(), artifact.TypeQuiz, "some text", Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if art.Quiz == nil || len(art.Quiz.Questions) != 1 {
		t.Errorf("fenced payload not parsed: %+v", art)
	}
}

func TestGenerateParseError(t *testing.T) {
	s, mock, st := newTestSession(t)
	mock.AddResponse("flashcards", flashcardsJSON)
	mock.AddResponse("quiz", "not json at all")

	// A prior artifact must survive a later parse failure.
	if _, err := s.Generate(context.Background(), artifact.TypeFlashcards, "some text", Options{}); err != nil {
		t.Fatalf("Generate(flashcards) error = %v", err)
	}

	_, err := s.Generate(context.Background(), artifact.TypeQuiz, "some text", Options{})
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Generate() error = %v, want ParseError", err)
	}
	if s.Err() == nil {
		t.Error("parse failure not surfaced in session error state")
	}
	if got := s.Active(); got == nil || got.Type != artifact.TypeFlashcards {
		t.Error("prior artifact was not left untouched after parse failure")
	}

	s.Flush()
	recs, _ := st.ListAllRecords(context.Background(), testOwner)
	if len(recs) != 1 {
		t.Errorf("persisted %d records, want only the flashcards deck", len(recs))
	}
}

func TestGenerateTransportClassification(t *testing.T) {
	tests := []struct {
		name    string
		failure error
		want    TransportKind
	}{
		{"rate limited", errors.New("429 too many requests"), KindRateLimited},
		{"quota", errors.New("daily quota exceeded for project"), KindQuotaExceeded},
		{"generic", errors.New("connection refused"), KindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock, _ := newTestSession(t)
			s.retry.MaxRetries = 0
			mock.FailWith(tt.failure)

			_, err := s.Generate(context.Background(), artifact.TypeQuiz, "some text", Options{})
			var terr *TransportError
			if !errors.As(err, &terr) {
				t.Fatalf("Generate() error = %v, want TransportError", err)
			}
			if terr.Kind != tt.want {
				t.Errorf("Kind = %q, want %q", terr.Kind, tt.want)
			}
		})
	}
}

func TestGenerateSupersession(t *testing.T) {
	s, mock, st := newTestSession(t)
	mock.AddResponse("quiz", quizJSON)
	mock.Block()

	firstDone := make(chan struct{})
	var firstArt *artifact.Artifact
	var firstErr error
	go func() {
		defer close(firstDone)
		firstArt, firstErr = s.Generate(context.Background(), artifact.TypeQuiz, "text A", Options{})
	}()

	// Wait for the first request to park inside the model call, then fire
	// the second: it cancels the first request's token before generating.
	waitUntil(t, func() bool { return mock.Waiting() == 1 })
	art, err := s.Generate(context.Background(), artifact.TypeExplanation, "text B", Options{})
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
	if art.Type != artifact.TypeExplanation {
		t.Fatalf("second artifact type = %q, want explanation", art.Type)
	}

	<-firstDone
	if firstErr != nil {
		t.Errorf("superseded Generate() error = %v, want nil (silent)", firstErr)
	}
	if firstArt != nil {
		t.Error("superseded Generate() returned an artifact")
	}
	if got := s.Active(); got == nil || got.Type != artifact.TypeExplanation {
		t.Errorf("active artifact = %+v, want the explanation for B", got)
	}

	s.Flush()
	recs, _ := st.ListAllRecords(context.Background(), testOwner)
	for _, rec := range recs {
		if rec.Type == artifact.TypeQuiz {
			t.Error("a quiz record for the superseded request was persisted")
		}
	}
}

func TestSendChatMessage(t *testing.T) {
	s, mock, _ := newTestSession(t)
	mock.AddResponse("mitochondria", "They produce ATP.")

	if _, err := s.Generate(context.Background(), artifact.TypeExplanation, "cell biology", Options{}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	reply, err := s.SendChatMessage(context.Background(), "What do mitochondria do?")
	if err != nil {
		t.Fatalf("SendChatMessage() error = %v", err)
	}
	if reply != "They produce ATP." {
		t.Errorf("reply = %q", reply)
	}

	chat := s.Active().Explanation.Chat
	if len(chat) < 2 {
		t.Fatalf("chat transcript too short: %d messages", len(chat))
	}
	last, prev := chat[len(chat)-1], chat[len(chat)-2]
	if prev.Role != artifact.RoleUser || !strings.Contains(prev.Text, "mitochondria") {
		t.Errorf("second-to-last message = %+v, want the user question", prev)
	}
	if last.Role != artifact.RoleModel || last.Text != "They produce ATP." {
		t.Errorf("last message = %+v, want the model reply", last)
	}
}

func TestSendChatMessageRequiresExplanation(t *testing.T) {
	s, mock, _ := newTestSession(t)
	mock.AddResponse("quiz", quizJSON)

	if _, err := s.SendChatMessage(context.Background(), "hello"); !errors.Is(err, ErrNoExplanation) {
		t.Errorf("SendChatMessage() with no artifact error = %v, want ErrNoExplanation", err)
	}

	if _, err := s.Generate(context.Background(), artifact.TypeQuiz, "some text", Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SendChatMessage(context.Background(), "hello"); !errors.Is(err, ErrNoExplanation) {
		t.Errorf("SendChatMessage() with quiz active error = %v, want ErrNoExplanation", err)
	}
}

func TestChatFailureKeepsUserMessage(t *testing.T) {
	s, mock, _ := newTestSession(t)

	if _, err := s.Generate(context.Background(), artifact.TypeExplanation, "cell biology", Options{}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	s.retry.MaxRetries = 0
	mock.FailWith(fmt.Errorf("503 service unavailable"))
	_, err := s.SendChatMessage(context.Background(), "What about ribosomes?")
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("SendChatMessage() error = %v, want TransportError", err)
	}

	chat := s.Active().Explanation.Chat
	last := chat[len(chat)-1]
	if last.Role != artifact.RoleUser || !strings.Contains(last.Text, "ribosomes") {
		t.Errorf("optimistic user message missing after failure: %+v", last)
	}
}

func TestReset(t *testing.T) {
	s, mock, _ := newTestSession(t)
	mock.AddResponse("quiz", quizJSON)

	if _, err := s.Generate(context.Background(), artifact.TypeQuiz, "some text", Options{}); err != nil {
		t.Fatal(err)
	}
	s.Reset()
	if s.Active() != nil {
		t.Error("Reset() left an active artifact")
	}
	if s.Err() != nil {
		t.Error("Reset() left error state")
	}
}

func TestRehydrate(t *testing.T) {
	s, _, _ := newTestSession(t)

	rec := store.Record{
		ID:      "rec-1",
		OwnerID: testOwner,
		Type:    artifact.TypeQuiz,
		Title:   "Photosynthesis Basics",
		Payload: []byte(quizJSON),
	}
	if err := s.Rehydrate(rec); err != nil {
		t.Fatalf("Rehydrate() error = %v", err)
	}
	got := s.Active()
	if got == nil || got.Type != artifact.TypeQuiz || got.Quiz == nil {
		t.Fatalf("Active() after Rehydrate = %+v", got)
	}
	if got.Title != "Photosynthesis Basics" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestSaveQuizResult(t *testing.T) {
	s, mock, st := newTestSession(t)
	mock.AddResponse("quiz", quizJSON)

	if _, err := s.Generate(context.Background(), artifact.TypeQuiz, "some text", Options{}); err != nil {
		t.Fatal(err)
	}

	rec, err := s.SaveQuizResult(context.Background(), []int{1})
	if err != nil {
		t.Fatalf("SaveQuizResult() error = %v", err)
	}
	if rec.Score == nil || *rec.Score != 1 {
		t.Errorf("Score = %v, want 1", rec.Score)
	}
	if rec.QuestionCount == nil || *rec.QuestionCount != 1 {
		t.Errorf("QuestionCount = %v, want 1", rec.QuestionCount)
	}

	s.Flush()
	recs, _ := st.ListAllRecords(context.Background(), testOwner)
	if len(recs) != 2 {
		t.Errorf("total records = %d, want generation record plus scored copy", len(recs))
	}
}

func TestRoundTripThroughStore(t *testing.T) {
	s, mock, st := newTestSession(t)
	mock.AddResponse("flashcards", flashcardsJSON)

	art, err := s.Generate(context.Background(), artifact.TypeFlashcards, "some text", Options{})
	if err != nil {
		t.Fatal(err)
	}
	s.Flush()

	recs, err := st.ListAllRecords(context.Background(), testOwner)
	if err != nil || len(recs) != 1 {
		t.Fatalf("ListAllRecords() = %v, %v", recs, err)
	}
	back, err := artifact.Parse(recs[0].Type, recs[0].Payload)
	if err != nil {
		t.Fatalf("Parse() round trip error = %v", err)
	}
	if back.Type != art.Type || back.Title != art.Title {
		t.Errorf("round trip mismatch: %q/%q vs %q/%q", back.Type, back.Title, art.Type, art.Title)
	}
	if len(back.Flashcards.Cards) != len(art.Flashcards.Cards) {
		t.Errorf("round trip card count = %d, want %d", len(back.Flashcards.Cards), len(art.Flashcards.Cards))
	}
}
