package tui

import (
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/generate"
)

// keyMap holds key bindings for help bar display.
type keyMap struct {
	Generate   key.Binding
	CycleType  key.Binding
	History    key.Binding
	Back       key.Binding
	Chat       key.Binding
	Flip       key.Binding
	Navigate   key.Binding
	Answer     key.Binding
	Confirm    key.Binding
	Search     key.Binding
	Filter     key.Binding
	Select     key.Binding
	Delete     key.Binding
	Open       key.Binding
	Quit       key.Binding
	Cancel     key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Generate:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "generate")),
		CycleType:  key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "type")),
		History:    key.NewBinding(key.WithKeys("ctrl+h"), key.WithHelp("ctrl+h", "history")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Chat:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "chat")),
		Flip:       key.NewBinding(key.WithKeys("space"), key.WithHelp("space", "flip")),
		Navigate:   key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "navigate")),
		Answer:     key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "answer")),
		Confirm:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Filter:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Select:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "select")),
		Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "exit")),
		Cancel:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "cancel")),
		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
	}
}

func (t *TUI) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	if k.Mod&tea.ModCtrl != 0 {
		switch k.Code {
		case 'c':
			return t.handleCtrlC()
		case 'd':
			return t, t.cleanup()
		case 't':
			if t.screen == ScreenDashboard {
				t.kindIdx = (t.kindIdx + 1) % len(artifact.Types())
				return t, nil
			}
		case 'h':
			return t.openHistory()
		}
	}

	switch k.Code {
	case tea.KeyPgUp:
		t.viewport.PageUp()
		return t, nil
	case tea.KeyPgDown:
		t.viewport.PageDown()
		return t, nil
	}

	switch t.screen {
	case ScreenDashboard:
		return t.handleDashboardKey(msg)
	case ScreenViewer:
		return t.handleViewerKey(msg)
	case ScreenHistory:
		return t.handleHistoryKey(msg)
	}
	return t, nil
}

func (t *TUI) handleCtrlC() (tea.Model, tea.Cmd) {
	now := time.Now()

	// Double Ctrl+C within 1 second = quit
	if now.Sub(t.lastCtrlC) < time.Second {
		return t, t.cleanup()
	}
	t.lastCtrlC = now

	switch {
	case t.generating:
		// Explicit stop: distinct from supersession, the session surfaces
		// no error for a cancelled request.
		t.session.Reset()
		t.generating = false
		t.status = "(Canceled)"
		t.rebuildViewportContent()
	case t.screen == ScreenDashboard:
		t.input.Reset()
	}
	return t, nil
}

func (t *TUI) handleDashboardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	if k.Code == tea.KeyEnter && k.Mod&tea.ModShift == 0 {
		return t.submitGeneration()
	}

	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return t, cmd
}

func (t *TUI) submitGeneration() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(t.input.Value())
	if text == "" {
		t.status = "Paste some study text first."
		return t, nil
	}

	kind := artifact.Types()[t.kindIdx]
	t.generating = true
	t.status = ""
	t.rebuildViewportContent()

	return t, tea.Batch(t.spinner.Tick, t.generateCmd(kind, text))
}

func (t *TUI) handleGenerateDone(msg generateDoneMsg) (tea.Model, tea.Cmd) {
	t.generating = false

	if msg.err != nil {
		t.status = describeError(msg.err)
		t.rebuildViewportContent()
		return t, nil
	}
	if msg.art == nil {
		// Superseded by a newer request; the newer one will report.
		return t, nil
	}

	t.openArtifact(msg.art)
	return t, nil
}

func (t *TUI) handleChatDone(msg chatDoneMsg) (tea.Model, tea.Cmd) {
	t.chatBusy = false

	if msg.err != nil {
		t.status = describeError(msg.err)
	} else {
		t.status = ""
		// The session owns the transcript; refresh our copy.
		t.art = t.session.Active()
	}
	t.rebuildViewportContent()
	t.viewport.GotoBottom()
	return t, t.chatInput.Focus()
}

func (t *TUI) openHistory() (tea.Model, tea.Cmd) {
	t.screen = ScreenHistory
	t.histIdx = 0
	t.searchMode = false
	t.status = ""
	t.rebuildViewportContent()
	return t, t.loadHistoryCmd()
}

// describeError turns a session error into a one-line status message.
func describeError(err error) string {
	if errors.Is(err, generate.ErrEmptyInput) {
		return "Nothing to send: the input is empty."
	}

	var transport *generate.TransportError
	if errors.As(err, &transport) {
		switch transport.Kind {
		case generate.KindRateLimited:
			return "The model is rate limited. Wait a moment and try again."
		case generate.KindQuotaExceeded:
			return "Model quota exhausted. Try again later."
		default:
			return "The model call failed. Check your connection and try again."
		}
	}

	var parse *generate.ParseError
	if errors.As(err, &parse) {
		return "The model returned something unusable. Try again."
	}

	return err.Error()
}
