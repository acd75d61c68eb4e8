// Package artifact defines the generated study content model.
//
// An Artifact is the result of one generation request: exactly one of the
// four variants (quiz, explanation, mind map, flashcards) is active at a
// time. The variant is discriminated by Type; consumers switch exhaustively
// on it and never inspect more than one payload field.
package artifact

import (
	"encoding/json"
	"time"
)

// Type discriminates the Artifact variants.
type Type string

const (
	TypeQuiz        Type = "quiz"
	TypeExplanation Type = "explanation"
	TypeMindMap     Type = "mindmap"
	TypeFlashcards  Type = "flashcards"
)

// Types lists every artifact type in display order.
func Types() []Type {
	return []Type{TypeQuiz, TypeExplanation, TypeMindMap, TypeFlashcards}
}

// Valid reports whether t is a known artifact type.
func (t Type) Valid() bool {
	switch t {
	case TypeQuiz, TypeExplanation, TypeMindMap, TypeFlashcards:
		return true
	}
	return false
}

// Artifact is one generated study object. Exactly one payload field is
// non-nil, matching Type.
type Artifact struct {
	Type      Type
	Title     string
	CreatedAt time.Time

	Quiz        *Quiz
	Explanation *Explanation
	MindMap     *MindMap
	Flashcards  *Flashcards
}

// Quiz is a multiple-choice quiz. Wire keys match the generation schema.
type Quiz struct {
	Title     string     `json:"quizTitle"`
	Questions []Question `json:"questions"`
}

// Question is one multiple-choice question.
type Question struct {
	Text         string   `json:"questionText"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctAnswerIndex"`
	Explanation  string   `json:"explanation"`
}

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ChatMessage is one turn of the tutor follow-up conversation.
type ChatMessage struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// Explanation is a markdown explanation plus its follow-up chat transcript.
type Explanation struct {
	Body string        `json:"content"`
	Chat []ChatMessage `json:"chatHistory,omitempty"`
}

// MindMap is a hierarchical concept map.
type MindMap struct {
	Title string        `json:"title"`
	Nodes []MindMapNode `json:"nodes"`
}

// MindMapNode is one concept. Level 0 nodes are roots; every deeper node
// references its parent by ID.
type MindMapNode struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Level       int    `json:"level"`
	ParentID    string `json:"parentId,omitempty"`
	Description string `json:"description,omitempty"`
}

// Flashcards is a flashcard deck.
type Flashcards struct {
	Title string `json:"title"`
	Cards []Card `json:"flashcards"`
}

// Card is one flashcard.
type Card struct {
	ID         string `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty,omitempty"`
}

// Payload returns the active variant's payload marshaled to JSON, suitable
// for durable storage. The inverse is Parse.
func (a *Artifact) Payload() (json.RawMessage, error) {
	switch a.Type {
	case TypeQuiz:
		return json.Marshal(a.Quiz)
	case TypeExplanation:
		return json.Marshal(a.Explanation)
	case TypeMindMap:
		return json.Marshal(a.MindMap)
	case TypeFlashcards:
		return json.Marshal(a.Flashcards)
	default:
		return nil, ErrUnknownType
	}
}
