package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/lumi-ai/lumi/internal/artifact"
)

func TestRenderQuiz(t *testing.T) {
	art := &artifact.Artifact{
		Type:  artifact.TypeQuiz,
		Title: "Biology Basics",
		Quiz: &artifact.Quiz{
			Title: "Biology Basics",
			Questions: []artifact.Question{
				{
					Text:         "What do plants produce?",
					Options:      []string{"Oxygen", "Salt", "Iron", "Plastic"},
					CorrectIndex: 0,
					Explanation:  "Photosynthesis releases oxygen.",
				},
			},
		},
	}

	got := renderArtifact(art)
	for _, want := range []string{
		"Biology Basics",
		"1. What do plants produce?",
		"* a) Oxygen",
		"  b) Salt",
		"> Photosynthesis releases oxygen.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("renderArtifact() missing %q in:\n%s", want, got)
		}
	}
}

func TestRenderMindMapNesting(t *testing.T) {
	art := &artifact.Artifact{
		Type:  artifact.TypeMindMap,
		Title: "Water Cycle",
		MindMap: &artifact.MindMap{
			Title: "Water Cycle",
			Nodes: []artifact.MindMapNode{
				{ID: "root", Label: "Water Cycle", Level: 0},
				{ID: "evap", Label: "Evaporation", Level: 1, ParentID: "root"},
			},
		},
	}

	got := renderArtifact(art)
	if !strings.Contains(got, "- Water Cycle\n") {
		t.Errorf("root node missing in:\n%s", got)
	}
	if !strings.Contains(got, "  - Evaporation") {
		t.Errorf("child node not indented in:\n%s", got)
	}
}

func TestRenderFlashcards(t *testing.T) {
	art := &artifact.Artifact{
		Type:  artifact.TypeFlashcards,
		Title: "Deck",
		Flashcards: &artifact.Flashcards{
			Title: "Deck",
			Cards: []artifact.Card{
				{Question: "2+2?", Answer: "4", Topic: "Math"},
			},
		},
	}

	got := renderArtifact(art)
	for _, want := range []string{"Card 1 [Math]", "Q: 2+2?", "A: 4"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderArtifact() missing %q in:\n%s", want, got)
		}
	}
}

func TestRenderNilPayloadIsSafe(t *testing.T) {
	art := &artifact.Artifact{Type: artifact.TypeQuiz, Title: "Empty"}
	if got := renderArtifact(art); !strings.Contains(got, "Empty") {
		t.Errorf("renderArtifact() = %q, want title", got)
	}
}

func TestFormatTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"seconds", now.Add(-30 * time.Second), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5 minutes ago"},
		{"hours", now.Add(-3 * time.Hour), "3 hours ago"},
		{"days", now.Add(-48 * time.Hour), "2 days ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTime(tt.t); got != tt.want {
				t.Errorf("formatTime() = %q, want %q", got, tt.want)
			}
		})
	}

	old := now.Add(-30 * 24 * time.Hour)
	if got := formatTime(old); got != old.Format("2006-01-02 15:04") {
		t.Errorf("formatTime(old) = %q, want absolute format", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q, want unchanged", got)
	}
	if got := truncate("line\nbreak", 20); strings.Contains(got, "\n") {
		t.Errorf("truncate() kept newline: %q", got)
	}
	got := truncate("a very long note content", 10)
	if len([]rune(got)) != 10 || !strings.HasSuffix(got, "…") {
		t.Errorf("truncate() = %q, want 10 runes ending in ellipsis", got)
	}
}
