package artifact

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parse decodes a stored or freshly generated payload into an Artifact of
// the given type and validates its structure. It is the single place where
// raw model or store output becomes a typed variant.
func Parse(t Type, payload json.RawMessage) (*Artifact, error) {
	a := &Artifact{Type: t}

	switch t {
	case TypeQuiz:
		var q Quiz
		if err := json.Unmarshal(payload, &q); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if err := validateQuiz(&q); err != nil {
			return nil, err
		}
		a.Quiz = &q
		a.Title = q.Title

	case TypeExplanation:
		var e Explanation
		if err := json.Unmarshal(payload, &e); err != nil {
			// Explanations generated before chat support were stored as
			// a bare string.
			var body string
			if err2 := json.Unmarshal(payload, &body); err2 != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
			}
			e = Explanation{Body: body}
		}
		if strings.TrimSpace(e.Body) == "" {
			return nil, fmt.Errorf("%w: empty explanation body", ErrInvalidPayload)
		}
		a.Explanation = &e

	case TypeMindMap:
		var m MindMap
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if err := validateMindMap(&m); err != nil {
			return nil, err
		}
		a.MindMap = &m
		a.Title = m.Title

	case TypeFlashcards:
		var f Flashcards
		if err := json.Unmarshal(payload, &f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if err := validateFlashcards(&f); err != nil {
			return nil, err
		}
		a.Flashcards = &f
		a.Title = f.Title

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}

	return a, nil
}

func validateQuiz(q *Quiz) error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz has no questions", ErrInvalidPayload)
	}
	for i, question := range q.Questions {
		if strings.TrimSpace(question.Text) == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidPayload, i)
		}
		if len(question.Options) < 2 {
			return fmt.Errorf("%w: question %d has %d options", ErrInvalidPayload, i, len(question.Options))
		}
		if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.Options) {
			return fmt.Errorf("%w: question %d answer index %d out of range",
				ErrInvalidPayload, i, question.CorrectIndex)
		}
	}
	return nil
}

func validateMindMap(m *MindMap) error {
	if len(m.Nodes) == 0 {
		return fmt.Errorf("%w: mind map has no nodes", ErrInvalidPayload)
	}

	ids := make(map[string]bool, len(m.Nodes))
	for i, n := range m.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node %d has no id", ErrInvalidPayload, i)
		}
		if ids[n.ID] {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidPayload, n.ID)
		}
		ids[n.ID] = true
	}

	roots := 0
	for _, n := range m.Nodes {
		if n.ParentID == "" {
			roots++
			continue
		}
		if !ids[n.ParentID] {
			return fmt.Errorf("%w: node %q references unknown parent %q",
				ErrInvalidPayload, n.ID, n.ParentID)
		}
	}
	if roots == 0 {
		return fmt.Errorf("%w: mind map has no root node", ErrInvalidPayload)
	}
	return nil
}

func validateFlashcards(f *Flashcards) error {
	if len(f.Cards) == 0 {
		return fmt.Errorf("%w: deck has no cards", ErrInvalidPayload)
	}
	for i, c := range f.Cards {
		if strings.TrimSpace(c.Question) == "" || strings.TrimSpace(c.Answer) == "" {
			return fmt.Errorf("%w: card %d missing question or answer", ErrInvalidPayload, i)
		}
	}
	return nil
}
