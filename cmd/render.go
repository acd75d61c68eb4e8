package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/lumi-ai/lumi/internal/artifact"
)

// renderArtifact formats an artifact for plain terminal output. The TUI has
// its own styled rendering; this one survives pipes and redirects.
func renderArtifact(art *artifact.Artifact) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s\n\n", art.Title, strings.Repeat("=", len(art.Title)))

	switch art.Type {
	case artifact.TypeQuiz:
		renderQuiz(&b, art.Quiz)
	case artifact.TypeExplanation:
		renderExplanation(&b, art.Explanation)
	case artifact.TypeMindMap:
		renderMindMap(&b, art.MindMap)
	case artifact.TypeFlashcards:
		renderFlashcards(&b, art.Flashcards)
	}

	return b.String()
}

func renderQuiz(b *strings.Builder, quiz *artifact.Quiz) {
	if quiz == nil {
		return
	}
	for i, q := range quiz.Questions {
		fmt.Fprintf(b, "%d. %s\n", i+1, q.Text)
		for j, opt := range q.Options {
			marker := " "
			if j == q.CorrectIndex {
				marker = "*"
			}
			fmt.Fprintf(b, "   %s %c) %s\n", marker, 'a'+j, opt)
		}
		if q.Explanation != "" {
			fmt.Fprintf(b, "   > %s\n", q.Explanation)
		}
		fmt.Fprintln(b)
	}
}

func renderExplanation(b *strings.Builder, exp *artifact.Explanation) {
	if exp == nil {
		return
	}
	fmt.Fprintln(b, exp.Body)
}

func renderMindMap(b *strings.Builder, mm *artifact.MindMap) {
	if mm == nil {
		return
	}
	children := make(map[string][]artifact.MindMapNode)
	for _, n := range mm.Nodes {
		children[n.ParentID] = append(children[n.ParentID], n)
	}

	var walk func(parentID string, depth int)
	walk = func(parentID string, depth int) {
		for _, n := range children[parentID] {
			fmt.Fprintf(b, "%s- %s\n", strings.Repeat("  ", depth), n.Label)
			if n.Description != "" {
				fmt.Fprintf(b, "%s  %s\n", strings.Repeat("  ", depth), n.Description)
			}
			walk(n.ID, depth+1)
		}
	}
	walk("", 0)
}

func renderFlashcards(b *strings.Builder, deck *artifact.Flashcards) {
	if deck == nil {
		return
	}
	for i, card := range deck.Cards {
		fmt.Fprintf(b, "Card %d", i+1)
		if card.Topic != "" {
			fmt.Fprintf(b, " [%s]", card.Topic)
		}
		fmt.Fprintln(b)
		fmt.Fprintf(b, "  Q: %s\n", card.Question)
		fmt.Fprintf(b, "  A: %s\n\n", card.Answer)
	}
}

// formatTime renders t relative to now for recent values, absolute
// otherwise.
func formatTime(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// truncate shortens s to at most n runes for single-line table output.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
