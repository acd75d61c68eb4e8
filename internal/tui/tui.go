// Package tui provides the Bubble Tea terminal interface for Lumi.
//
// The interface is a three-screen state machine:
//
//	Dashboard → paste source text, pick an artifact type, generate
//	Viewer    → study the generated artifact (practice, flip, chat)
//	History   → browse, search, filter, and reopen past generations
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/generate"
	"github.com/lumi-ai/lumi/internal/history"
)

// Screen identifies the active top-level screen.
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenViewer
	ScreenHistory
)

// generateTimeout bounds a single generation call.
const generateTimeout = 2 * time.Minute

// Layout constants for viewport height calculation.
const (
	separatorLines = 2 // Two separator lines (above and below input)
	helpLines      = 1 // Help bar height
	inputLines     = 3 // Dashboard textarea height
	minViewport    = 3 // Minimum viewport height
)

// practiceState tracks an in-progress quiz run.
type practiceState struct {
	questionIdx int
	selected    int // highlighted option, -1 when none
	revealed    bool
	answers     []int
	finished    bool
	score       int
	saved       bool
}

// TUI is the Bubble Tea model for the Lumi terminal interface.
type TUI struct {
	// Dependencies (direct, no interface)
	session *generate.Session
	browser *history.Browser

	ctx       context.Context
	ctxCancel context.CancelFunc // For canceling in-flight work on exit

	screen Screen

	// Dashboard
	input      textarea.Model
	kindIdx    int // index into artifact.Types()
	generating bool

	// Viewer
	art       *artifact.Artifact
	viewport  viewport.Model
	chatInput textinput.Model
	chatMode  bool
	chatBusy  bool
	practice  *practiceState
	cardIdx   int
	flipped   bool

	// History
	histIdx       int
	searchInput   textinput.Model
	searchMode    bool
	searchSeq     int
	currentFilter artifact.Type

	// Chrome
	spinner   spinner.Model
	help      help.Model
	keys      keyMap
	styles    Styles
	markdown  *markdownRenderer
	viewBuf   strings.Builder // Reusable buffer for View() to reduce allocations
	status    string          // Transient status or error line
	lastCtrlC time.Time

	width  int
	height int
}

// New creates the TUI model.
// Returns error if required dependencies are nil.
//
// IMPORTANT: ctx MUST be the same context passed to tea.WithContext()
// to ensure consistent cancellation behavior.
func New(ctx context.Context, sess *generate.Session, browser *history.Browser) (*TUI, error) {
	if sess == nil {
		return nil, errors.New("tui.New: session is required")
	}
	if browser == nil {
		return nil, errors.New("tui.New: history browser is required")
	}
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}

	ctx, cancel := context.WithCancel(ctx)

	ta := textarea.New()
	ta.Placeholder = "Paste your study text here..."
	ta.SetHeight(inputLines)
	ta.SetWidth(120) // Updated on WindowSizeMsg
	ta.ShowLineNumbers = false

	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{Focused: cleanStyle, Blurred: cleanStyle})
	ta.Focus()

	chatIn := textinput.New()
	chatIn.Placeholder = "Ask a follow-up question..."

	searchIn := textinput.New()
	searchIn.Placeholder = "Search titles..."

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{} // Keys are routed explicitly in handleKey

	return &TUI{
		session:     sess,
		browser:     browser,
		ctx:         ctx,
		ctxCancel:   cancel,
		input:       ta,
		chatInput:   chatIn,
		searchInput: searchIn,
		spinner:     sp,
		viewport:    vp,
		help:        help.New(),
		keys:        newKeyMap(),
		styles:      DefaultStyles(),
		markdown:    newMarkdownRenderer(80),
		width:       80,
	}, nil
}

// Init implements tea.Model.
func (t *TUI) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		t.spinner.Tick,
		t.input.Focus(),
	)
}

// Update implements tea.Model.
func (t *TUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return t.handleKey(msg)

	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height

		fixedHeight := separatorLines + inputLines + helpLines
		vpHeight := max(msg.Height-fixedHeight, minViewport)

		t.viewport.SetWidth(msg.Width)
		t.viewport.SetHeight(vpHeight)
		t.input.SetWidth(msg.Width - 4)
		t.chatInput.SetWidth(msg.Width - 4)
		t.searchInput.SetWidth(msg.Width - 4)
		t.help.SetWidth(msg.Width)
		t.markdown.UpdateWidth(msg.Width)

		t.rebuildViewportContent()
		return t, nil

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		t.viewport, cmd = t.viewport.Update(msg)
		return t, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		t.spinner, cmd = t.spinner.Update(msg)
		if t.generating || t.chatBusy {
			t.rebuildViewportContent()
		}
		return t, cmd

	case generateDoneMsg:
		return t.handleGenerateDone(msg)

	case chatDoneMsg:
		return t.handleChatDone(msg)

	case quizSavedMsg:
		if msg.err != nil {
			t.status = "Could not save result: " + msg.err.Error()
		} else if t.practice != nil {
			t.practice.saved = true
			t.status = "Result saved to history."
		}
		t.rebuildViewportContent()
		return t, nil

	case historyUpdatedMsg:
		if t.histIdx >= len(t.browser.Records()) {
			t.histIdx = max(len(t.browser.Records())-1, 0)
		}
		t.rebuildViewportContent()
		return t, nil

	case searchTickMsg:
		// Trailing-edge debounce: only the latest scheduled tick fires.
		if msg.seq == t.searchSeq && t.screen == ScreenHistory {
			return t, t.searchCmd(t.searchInput.Value())
		}
		return t, nil

	case rehydratedMsg:
		if msg.err != nil {
			t.status = "Could not open record: " + msg.err.Error()
			t.rebuildViewportContent()
			return t, nil
		}
		t.openArtifact(t.session.Active())
		return t, nil
	}

	return t.updateFocusedInput(msg)
}

// updateFocusedInput forwards a message to whichever text widget has focus.
func (t *TUI) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case t.screen == ScreenDashboard:
		t.input, cmd = t.input.Update(msg)
	case t.screen == ScreenViewer && t.chatMode:
		t.chatInput, cmd = t.chatInput.Update(msg)
	case t.screen == ScreenHistory && t.searchMode:
		t.searchInput, cmd = t.searchInput.Update(msg)
	}
	return t, cmd
}

// openArtifact switches to the viewer screen for art, resetting any
// per-artifact study state.
func (t *TUI) openArtifact(art *artifact.Artifact) {
	t.art = art
	t.screen = ScreenViewer
	t.chatMode = false
	t.cardIdx = 0
	t.flipped = false
	t.practice = nil
	t.status = ""

	if art != nil && art.Type == artifact.TypeQuiz && art.Quiz != nil {
		t.practice = &practiceState{
			selected: -1,
			answers:  make([]int, 0, len(art.Quiz.Questions)),
		}
	}

	t.rebuildViewportContent()
	t.viewport.GotoTop()
}

// cleanup cancels in-flight work and returns the quit command.
func (t *TUI) cleanup() tea.Cmd {
	if t.ctxCancel != nil {
		t.ctxCancel()
		t.ctxCancel = nil
	}
	t.browser.Close()
	return tea.Quit
}
