package generate

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/lumi-ai/lumi/internal/artifact"
)

// promptSpec is one fully-built model request: the prompt text, the JSON
// response schema (nil for free-text kinds), and which model tier to use.
// Explanations go to the larger model; everything else runs on the lighter
// tier, mirroring the free-tier friendly split of the original prompts.
type promptSpec struct {
	text     string
	schema   *genai.Schema
	useFlash bool
}

func buildPrompt(kind artifact.Type, sourceText, difficulty string) promptSpec {
	switch kind {
	case artifact.TypeQuiz:
		return promptSpec{
			text: fmt.Sprintf("Generate a 5-question multiple-choice quiz from the provided text. Difficulty: %s.\n"+
				"The output must be valid JSON with the exact schema.\n"+
				"Text: %s", difficulty, sourceText),
			schema: quizSchema(),
		}
	case artifact.TypeExplanation:
		return promptSpec{
			text: fmt.Sprintf("You are a helpful AI tutor. Generate a detailed explanation of key concepts from the text for a '%s' level learner. Format with Markdown.\n"+
				"Text: %s", difficulty, sourceText),
			useFlash: true,
		}
	case artifact.TypeMindMap:
		return promptSpec{
			text: "Extract key concepts and their relationships from the text to create a hierarchical mind map structure. " +
				"Identify the main topic, subtopics, and supporting details. Return as JSON with nodes and their relationships.\n" +
				"Text: " + sourceText,
			schema: mindMapSchema(),
		}
	case artifact.TypeFlashcards:
		return promptSpec{
			text: fmt.Sprintf("Create 10 flashcards from the provided text. Each flashcard should have a clear question on the front and a detailed answer on the back. Difficulty: %s. Focus on key concepts, definitions, and important facts.\n"+
				"Return JSON per schema.\n"+
				"Text: %s", difficulty, sourceText),
			schema: flashcardsSchema(),
		}
	default:
		return promptSpec{}
	}
}

// chatSystemPrompt frames a follow-up question against the explanation
// already on screen.
func chatSystemPrompt(difficulty string) string {
	return fmt.Sprintf("You are an AI tutor. A detailed explanation is already on screen. "+
		"Answer the user's follow-up question briefly and conversationally, based on the chat history. Difficulty: %s.", difficulty)
}

func quizSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"quizTitle": {Type: genai.TypeString},
			"questions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"questionText":       {Type: genai.TypeString},
						"options":            {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
						"correctAnswerIndex": {Type: genai.TypeInteger},
						"explanation":        {Type: genai.TypeString},
					},
					Required: []string{"questionText", "options", "correctAnswerIndex", "explanation"},
				},
			},
		},
		Required: []string{"quizTitle", "questions"},
	}
}

func mindMapSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {Type: genai.TypeString},
			"nodes": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":          {Type: genai.TypeString},
						"label":       {Type: genai.TypeString},
						"level":       {Type: genai.TypeInteger},
						"parentId":    {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
					},
					Required: []string{"id", "label", "level"},
				},
			},
		},
		Required: []string{"title", "nodes"},
	}
}

func flashcardsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {Type: genai.TypeString},
			"flashcards": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":         {Type: genai.TypeString},
						"question":   {Type: genai.TypeString},
						"answer":     {Type: genai.TypeString},
						"topic":      {Type: genai.TypeString},
						"difficulty": {Type: genai.TypeString},
					},
					Required: []string{"id", "question", "answer", "topic"},
				},
			},
		},
		Required: []string{"title", "flashcards"},
	}
}
