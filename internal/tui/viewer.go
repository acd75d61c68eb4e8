package tui

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/lumi-ai/lumi/internal/artifact"
)

func (t *TUI) handleViewerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	// Chat mode owns the keyboard except Esc.
	if t.chatMode {
		switch k.Code {
		case tea.KeyEscape:
			t.chatMode = false
			t.rebuildViewportContent()
			return t, nil
		case tea.KeyEnter:
			return t.submitChat()
		}
		var cmd tea.Cmd
		t.chatInput, cmd = t.chatInput.Update(msg)
		return t, cmd
	}

	if k.Code == tea.KeyEscape {
		t.screen = ScreenDashboard
		t.status = ""
		t.rebuildViewportContent()
		return t, t.input.Focus()
	}

	if t.art == nil {
		return t, nil
	}

	switch t.art.Type {
	case artifact.TypeQuiz:
		return t.handleQuizKey(msg)
	case artifact.TypeFlashcards:
		return t.handleFlashcardKey(msg)
	case artifact.TypeExplanation:
		if k.Code == 'c' {
			t.chatMode = true
			t.rebuildViewportContent()
			t.viewport.GotoBottom()
			return t, t.chatInput.Focus()
		}
	}

	// Mind maps and explanations scroll with the viewport.
	switch k.Code {
	case tea.KeyUp:
		t.viewport.ScrollUp(1)
	case tea.KeyDown:
		t.viewport.ScrollDown(1)
	}
	return t, nil
}

func (t *TUI) submitChat() (tea.Model, tea.Cmd) {
	message := strings.TrimSpace(t.chatInput.Value())
	if message == "" || t.chatBusy {
		return t, nil
	}

	t.chatInput.Reset()
	t.chatBusy = true
	t.status = ""

	// The session appends the user turn optimistically; the next rebuild
	// (spinner tick) picks it up from the shared artifact.
	t.rebuildViewportContent()
	t.viewport.GotoBottom()

	return t, tea.Batch(t.spinner.Tick, t.chatCmd(message))
}

// handleQuizKey drives the practice run: pick an answer to reveal the
// correction, Enter to advance, score saved automatically at the end.
func (t *TUI) handleQuizKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	p := t.practice
	if p == nil || t.art.Quiz == nil {
		return t, nil
	}
	questions := t.art.Quiz.Questions
	k := msg.Key()

	if p.finished {
		return t, nil
	}

	if !p.revealed {
		if k.Code >= '1' && k.Code <= '4' {
			idx := int(k.Code - '1')
			if idx < len(questions[p.questionIdx].Options) {
				p.selected = idx
				p.revealed = true
				p.answers = append(p.answers, idx)
				if idx == questions[p.questionIdx].CorrectIndex {
					p.score++
				}
				t.rebuildViewportContent()
			}
		}
		return t, nil
	}

	if k.Code == tea.KeyEnter {
		p.questionIdx++
		p.selected = -1
		p.revealed = false

		if p.questionIdx >= len(questions) {
			p.finished = true
			t.rebuildViewportContent()
			return t, t.saveQuizCmd(p.answers)
		}
		t.rebuildViewportContent()
		t.viewport.GotoTop()
	}
	return t, nil
}

func (t *TUI) handleFlashcardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	cards := t.art.Flashcards
	if cards == nil || len(cards.Cards) == 0 {
		return t, nil
	}

	switch msg.Key().Code {
	case tea.KeySpace:
		t.flipped = !t.flipped
	case tea.KeyLeft:
		if t.cardIdx > 0 {
			t.cardIdx--
			t.flipped = false
		}
	case tea.KeyRight:
		if t.cardIdx < len(cards.Cards)-1 {
			t.cardIdx++
			t.flipped = false
		}
	default:
		return t, nil
	}
	t.rebuildViewportContent()
	return t, nil
}
