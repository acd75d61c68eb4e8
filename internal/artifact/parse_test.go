package artifact

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseQuiz(t *testing.T) {
	payload := json.RawMessage(`{
		"quizTitle": "Photosynthesis Basics",
		"questions": [
			{
				"questionText": "What gas do plants absorb?",
				"options": ["Oxygen", "Carbon dioxide", "Nitrogen", "Helium"],
				"correctAnswerIndex": 1,
				"explanation": "Plants take in CO2 for photosynthesis."
			}
		]
	}`)

	a, err := Parse(TypeQuiz, payload)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if a.Type != TypeQuiz || a.Quiz == nil {
		t.Fatalf("expected quiz variant, got %+v", a)
	}
	if a.Title != "Photosynthesis Basics" {
		t.Errorf("Title = %q, want quiz title", a.Title)
	}
	if got := a.Quiz.Questions[0].CorrectIndex; got != 1 {
		t.Errorf("CorrectIndex = %d, want 1", got)
	}
}

func TestParseQuizValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"no questions", `{"quizTitle":"Empty","questions":[]}`},
		{"answer index out of range", `{"quizTitle":"Bad","questions":[
			{"questionText":"Q","options":["a","b"],"correctAnswerIndex":2,"explanation":"x"}]}`},
		{"single option", `{"quizTitle":"Bad","questions":[
			{"questionText":"Q","options":["a"],"correctAnswerIndex":0,"explanation":"x"}]}`},
		{"empty question text", `{"quizTitle":"Bad","questions":[
			{"questionText":"  ","options":["a","b"],"correctAnswerIndex":0,"explanation":"x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(TypeQuiz, json.RawMessage(tt.payload))
			if !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("Parse() error = %v, want ErrInvalidPayload", err)
			}
		})
	}
}

func TestParseExplanationLegacyString(t *testing.T) {
	// Older records stored the explanation body as a bare JSON string.
	a, err := Parse(TypeExplanation, json.RawMessage(`"The cell is the basic unit of life."`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if a.Explanation.Body != "The cell is the basic unit of life." {
		t.Errorf("Body = %q", a.Explanation.Body)
	}
}

func TestParseMindMap(t *testing.T) {
	payload := json.RawMessage(`{
		"title": "Water Cycle",
		"nodes": [
			{"id": "root", "label": "Water Cycle", "level": 0},
			{"id": "evap", "label": "Evaporation", "level": 1, "parentId": "root"}
		]
	}`)

	a, err := Parse(TypeMindMap, payload)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(a.MindMap.Nodes) != 2 {
		t.Errorf("expected 2 nodes, got %d", len(a.MindMap.Nodes))
	}
}

func TestParseMindMapOrphanNode(t *testing.T) {
	payload := json.RawMessage(`{
		"title": "Broken",
		"nodes": [
			{"id": "root", "label": "Root", "level": 0},
			{"id": "lost", "label": "Lost", "level": 1, "parentId": "missing"}
		]
	}`)

	_, err := Parse(TypeMindMap, payload)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Parse() error = %v, want ErrInvalidPayload", err)
	}
}

func TestParseMalformedJSON(t *testing.T) {
	_, err := Parse(TypeFlashcards, json.RawMessage(`{not json`))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("Parse() error = %v, want ErrMalformedPayload", err)
	}
}

func TestParseUnknownType(t *testing.T) {
	_, err := Parse(Type("podcast"), json.RawMessage(`{}`))
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("Parse() error = %v, want ErrUnknownType", err)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	orig := &Artifact{
		Type: TypeFlashcards,
		Flashcards: &Flashcards{
			Title: "Latin Roots",
			Cards: []Card{
				{ID: "c1", Question: "aqua", Answer: "water", Topic: "roots", Difficulty: "Easy"},
			},
		},
	}

	raw, err := orig.Payload()
	if err != nil {
		t.Fatalf("Payload() error: %v", err)
	}

	back, err := Parse(TypeFlashcards, raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if back.Flashcards.Cards[0].Answer != "water" {
		t.Errorf("round trip lost card answer: %+v", back.Flashcards.Cards[0])
	}
}

func TestTypeValid(t *testing.T) {
	for _, typ := range Types() {
		if !typ.Valid() {
			t.Errorf("Types() returned invalid type %q", typ)
		}
	}
	if Type("essay").Valid() {
		t.Error("unexpected valid type")
	}
}
