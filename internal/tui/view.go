package tui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/history"
)

// View implements tea.Model.
// Uses AltScreen with viewport for scrollable content.
func (t *TUI) View() tea.View {
	t.viewBuf.Reset()

	_, _ = t.viewBuf.WriteString(t.viewport.View())
	_, _ = t.viewBuf.WriteString("\n")

	_, _ = t.viewBuf.WriteString(t.renderSeparator())
	_, _ = t.viewBuf.WriteString("\n")

	_, _ = t.viewBuf.WriteString(t.renderInputArea())

	_, _ = t.viewBuf.WriteString(t.renderSeparator())
	_, _ = t.viewBuf.WriteString("\n")

	if t.status != "" {
		_, _ = t.viewBuf.WriteString(t.styles.Error.Render(t.status))
		_, _ = t.viewBuf.WriteString("\n")
	}
	_, _ = t.viewBuf.WriteString(t.renderStatusBar())

	v := tea.NewView(t.viewBuf.String())
	v.AltScreen = true
	return v
}

// renderInputArea shows whichever input belongs to the active screen.
func (t *TUI) renderInputArea() string {
	var b strings.Builder
	switch {
	case t.screen == ScreenDashboard:
		kind := artifact.Types()[t.kindIdx]
		_, _ = b.WriteString(t.styles.Header.Render("[" + displayName(kind) + "]"))
		_, _ = b.WriteString(" ")
		_, _ = b.WriteString(t.styles.Dim.Render("(ctrl+t to change)"))
		_, _ = b.WriteString("\n")
		_, _ = b.WriteString(t.input.View())
		_, _ = b.WriteString("\n")
	case t.screen == ScreenViewer && t.chatMode:
		_, _ = b.WriteString(t.styles.Prompt.Render("chat> "))
		_, _ = b.WriteString(t.chatInput.View())
		_, _ = b.WriteString("\n")
	case t.screen == ScreenHistory && t.searchMode:
		_, _ = b.WriteString(t.styles.Prompt.Render("search> "))
		_, _ = b.WriteString(t.searchInput.View())
		_, _ = b.WriteString("\n")
	default:
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

// rebuildViewportContent reconstructs the viewport content for the active
// screen. Called whenever displayed state changes.
func (t *TUI) rebuildViewportContent() {
	var b strings.Builder

	switch t.screen {
	case ScreenDashboard:
		t.renderDashboard(&b)
	case ScreenViewer:
		t.renderViewer(&b)
	case ScreenHistory:
		t.renderHistory(&b)
	}

	t.viewport.SetContent(b.String())
}

func (t *TUI) renderDashboard(b *strings.Builder) {
	_, _ = b.WriteString(t.styles.RenderBanner())
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(t.styles.RenderWelcomeTips())
	_, _ = b.WriteString("\n")

	if t.generating {
		_, _ = b.WriteString(t.spinner.View())
		_, _ = b.WriteString(" Generating ")
		_, _ = b.WriteString(displayName(artifact.Types()[t.kindIdx]))
		_, _ = b.WriteString("...\n")
	}
}

func (t *TUI) renderViewer(b *strings.Builder) {
	if t.art == nil {
		_, _ = b.WriteString(t.styles.System.Render("Nothing to show yet."))
		return
	}

	_, _ = b.WriteString(t.styles.Title.Render(t.art.Title))
	_, _ = b.WriteString("\n\n")

	switch t.art.Type {
	case artifact.TypeQuiz:
		t.renderQuiz(b)
	case artifact.TypeExplanation:
		t.renderExplanation(b)
	case artifact.TypeMindMap:
		t.renderMindMap(b)
	case artifact.TypeFlashcards:
		t.renderFlashcards(b)
	}
}

func (t *TUI) renderQuiz(b *strings.Builder) {
	quiz := t.art.Quiz
	p := t.practice
	if quiz == nil || p == nil {
		return
	}

	if p.finished {
		fmt.Fprintf(b, "Practice complete: %d / %d correct.\n\n", p.score, len(quiz.Questions))
		if p.saved {
			_, _ = b.WriteString(t.styles.System.Render("Result saved to history."))
			_, _ = b.WriteString("\n")
		}
		_, _ = b.WriteString(t.styles.Dim.Render("Esc returns to the dashboard."))
		_, _ = b.WriteString("\n")
		return
	}

	q := quiz.Questions[p.questionIdx]
	fmt.Fprintf(b, "Question %d of %d\n\n", p.questionIdx+1, len(quiz.Questions))
	_, _ = b.WriteString(q.Text)
	_, _ = b.WriteString("\n\n")

	for i, opt := range q.Options {
		label := fmt.Sprintf("  %d. %s", i+1, opt)
		switch {
		case p.revealed && i == q.CorrectIndex:
			label = t.styles.Correct.Render(label + "  ✓")
		case p.revealed && i == p.selected:
			label = t.styles.Wrong.Render(label + "  ✗")
		case !p.revealed && i == p.selected:
			label = t.styles.Selected.Render(label)
		}
		_, _ = b.WriteString(label)
		_, _ = b.WriteString("\n")
	}

	if p.revealed {
		_, _ = b.WriteString("\n")
		_, _ = b.WriteString(t.styles.System.Render(q.Explanation))
		_, _ = b.WriteString("\n\n")
		_, _ = b.WriteString(t.styles.Dim.Render("Enter for the next question."))
		_, _ = b.WriteString("\n")
	}
}

func (t *TUI) renderExplanation(b *strings.Builder) {
	exp := t.art.Explanation
	if exp == nil {
		return
	}

	_, _ = b.WriteString(t.markdown.Render(exp.Body))
	_, _ = b.WriteString("\n\n")

	// Transcript, minus the seeded scaffold turns.
	for i, msg := range exp.Chat {
		if i < 2 {
			continue
		}
		switch msg.Role {
		case artifact.RoleUser:
			_, _ = b.WriteString(t.styles.User.Render("You> "))
			_, _ = b.WriteString(msg.Text)
		case artifact.RoleModel:
			_, _ = b.WriteString(t.styles.Tutor.Render("Tutor> "))
			_, _ = b.WriteString(t.markdown.Render(msg.Text))
		}
		_, _ = b.WriteString("\n\n")
	}

	if t.chatBusy {
		_, _ = b.WriteString(t.spinner.View())
		_, _ = b.WriteString(" Thinking...\n")
	} else if !t.chatMode {
		_, _ = b.WriteString(t.styles.Dim.Render("Press c to ask a follow-up question."))
		_, _ = b.WriteString("\n")
	}
}

func (t *TUI) renderMindMap(b *strings.Builder) {
	mm := t.art.MindMap
	if mm == nil {
		return
	}

	// Outline view: children grouped under their parent, indented by level.
	children := make(map[string][]artifact.MindMapNode)
	var roots []artifact.MindMapNode
	for _, n := range mm.Nodes {
		if n.Level == 0 || n.ParentID == "" {
			roots = append(roots, n)
			continue
		}
		children[n.ParentID] = append(children[n.ParentID], n)
	}

	var walk func(n artifact.MindMapNode, depth int)
	walk = func(n artifact.MindMapNode, depth int) {
		indent := strings.Repeat("  ", depth)
		_, _ = b.WriteString(indent)
		if depth == 0 {
			_, _ = b.WriteString(t.styles.Header.Render("● " + n.Label))
		} else {
			_, _ = b.WriteString("○ " + n.Label)
		}
		_, _ = b.WriteString("\n")
		if n.Description != "" {
			_, _ = b.WriteString(indent)
			_, _ = b.WriteString(t.styles.Dim.Render("  " + n.Description))
			_, _ = b.WriteString("\n")
		}
		for _, c := range children[n.ID] {
			walk(c, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
		_, _ = b.WriteString("\n")
	}
}

func (t *TUI) renderFlashcards(b *strings.Builder) {
	cards := t.art.Flashcards
	if cards == nil || len(cards.Cards) == 0 {
		return
	}
	card := cards.Cards[t.cardIdx]

	fmt.Fprintf(b, "Card %d of %d", t.cardIdx+1, len(cards.Cards))
	if card.Topic != "" {
		_, _ = b.WriteString(t.styles.Dim.Render("  [" + card.Topic + "]"))
	}
	_, _ = b.WriteString("\n\n")

	if t.flipped {
		_, _ = b.WriteString(t.styles.Header.Render("A:"))
		_, _ = b.WriteString(" ")
		_, _ = b.WriteString(card.Answer)
	} else {
		_, _ = b.WriteString(t.styles.Title.Render("Q:"))
		_, _ = b.WriteString(" ")
		_, _ = b.WriteString(card.Question)
	}
	_, _ = b.WriteString("\n\n")
	_, _ = b.WriteString(t.styles.Dim.Render("Space flips, ←/→ move between cards."))
	_, _ = b.WriteString("\n")
}

func (t *TUI) renderHistory(b *strings.Builder) {
	_, _ = b.WriteString(t.styles.Header.Render("History"))
	if t.currentFilter != "" {
		_, _ = b.WriteString(t.styles.Dim.Render("  filter: " + displayName(t.currentFilter)))
	}
	if t.browser.SelectionMode() {
		fmt.Fprintf(b, "%s", t.styles.Dim.Render(fmt.Sprintf("  selecting (%d)", len(t.browser.Selected()))))
	}
	_, _ = b.WriteString("\n\n")

	if t.browser.State() == history.StateLoading {
		_, _ = b.WriteString(t.spinner.View())
		_, _ = b.WriteString(" Loading...\n")
		return
	}
	if err := t.browser.Err(); err != nil {
		_, _ = b.WriteString(t.styles.Error.Render("Could not load history: " + err.Error()))
		_, _ = b.WriteString("\n")
		return
	}

	records := t.browser.Records()
	if len(records) == 0 {
		_, _ = b.WriteString(t.styles.System.Render("No history yet. Generate something first."))
		_, _ = b.WriteString("\n")
		return
	}

	selected := make(map[string]bool)
	for _, id := range t.browser.Selected() {
		selected[id] = true
	}

	// Flat index across groups tracks the cursor position.
	idx := 0
	for _, group := range t.browser.Groups(time.Now()) {
		_, _ = b.WriteString(t.styles.Dim.Render(string(group.Bucket)))
		_, _ = b.WriteString("\n")
		for _, rec := range group.Records {
			line := fmt.Sprintf("  %-11s %s", displayName(rec.Type), rec.Title)
			if rec.Score != nil && rec.QuestionCount != nil {
				line += fmt.Sprintf("  (%d/%d)", *rec.Score, *rec.QuestionCount)
			}
			switch {
			case idx == t.histIdx:
				line = t.styles.Selected.Render(line)
			case selected[rec.ID]:
				line = t.styles.Header.Render(line + " *")
			}
			_, _ = b.WriteString(line)
			_, _ = b.WriteString("\n")
			idx++
		}
		_, _ = b.WriteString("\n")
	}

	if t.browser.HasMore() {
		_, _ = b.WriteString(t.styles.Dim.Render("↓ more..."))
		_, _ = b.WriteString("\n")
	}
}

// renderSeparator returns a horizontal line separator.
func (t *TUI) renderSeparator() string {
	width := t.width
	if width <= 0 {
		width = 80
	}
	return t.styles.Separator.Render(strings.Repeat("─", width))
}

// renderStatusBar returns screen-appropriate keyboard shortcut help.
func (t *TUI) renderStatusBar() string {
	var bindings []key.Binding
	switch t.screen {
	case ScreenDashboard:
		bindings = []key.Binding{
			t.keys.Generate, t.keys.CycleType, t.keys.History,
			t.keys.Cancel, t.keys.Quit,
		}
	case ScreenViewer:
		switch {
		case t.art != nil && t.art.Type == artifact.TypeQuiz:
			bindings = []key.Binding{t.keys.Answer, t.keys.Confirm, t.keys.Back}
		case t.art != nil && t.art.Type == artifact.TypeFlashcards:
			bindings = []key.Binding{t.keys.Flip, t.keys.Navigate, t.keys.Back}
		case t.art != nil && t.art.Type == artifact.TypeExplanation:
			bindings = []key.Binding{t.keys.Chat, t.keys.Back, t.keys.ScrollUp, t.keys.ScrollDown}
		default:
			bindings = []key.Binding{t.keys.Back, t.keys.ScrollUp, t.keys.ScrollDown}
		}
	case ScreenHistory:
		bindings = []key.Binding{
			t.keys.Open, t.keys.Search, t.keys.Filter,
			t.keys.Select, t.keys.Delete, t.keys.Back,
		}
	}
	return t.help.ShortHelpView(bindings)
}

// displayName returns the human-readable artifact type name.
func displayName(kind artifact.Type) string {
	switch kind {
	case artifact.TypeQuiz:
		return "Quiz"
	case artifact.TypeExplanation:
		return "Explanation"
	case artifact.TypeMindMap:
		return "Mind Map"
	case artifact.TypeFlashcards:
		return "Flashcards"
	default:
		return string(kind)
	}
}
