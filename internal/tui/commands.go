package tui

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/generate"
	"github.com/lumi-ai/lumi/internal/history"
	"github.com/lumi-ai/lumi/internal/store"
)

// Bubble Tea messages for async work. Each command runs one blocking call
// off the event loop and reports back with exactly one message.
type (
	generateDoneMsg struct {
		art *artifact.Artifact
		err error
	}

	chatDoneMsg struct {
		reply string
		err   error
	}

	quizSavedMsg struct {
		rec store.Record
		err error
	}

	historyUpdatedMsg struct{}

	searchTickMsg struct {
		seq int
	}

	rehydratedMsg struct {
		err error
	}
)

// generateCmd runs one generation on the session's main lane. Firing a new
// command while one is in flight supersedes the old one; the superseded
// command reports (nil, nil) and is ignored.
func (t *TUI) generateCmd(kind artifact.Type, sourceText string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(t.ctx, generateTimeout)
		defer cancel()

		art, err := t.session.Generate(ctx, kind, sourceText, generate.Options{})
		return generateDoneMsg{art: art, err: err}
	}
}

// chatCmd sends one follow-up message on the chat lane.
func (t *TUI) chatCmd(message string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(t.ctx, generateTimeout)
		defer cancel()

		reply, err := t.session.SendChatMessage(ctx, message)
		return chatDoneMsg{reply: reply, err: err}
	}
}

// saveQuizCmd grades the finished practice run and persists a scored record.
func (t *TUI) saveQuizCmd(answers []int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(t.ctx, 10*time.Second)
		defer cancel()

		rec, err := t.session.SaveQuizResult(ctx, answers)
		return quizSavedMsg{rec: rec, err: err}
	}
}

// loadHistoryCmd refreshes the first page of history.
func (t *TUI) loadHistoryCmd() tea.Cmd {
	return func() tea.Msg {
		_ = t.browser.Load(t.ctx)
		return historyUpdatedMsg{}
	}
}

// loadMoreCmd appends the next history page, if any.
func (t *TUI) loadMoreCmd() tea.Cmd {
	return func() tea.Msg {
		_ = t.browser.LoadMore(t.ctx)
		return historyUpdatedMsg{}
	}
}

// setFilterCmd applies a type filter and reloads.
func (t *TUI) setFilterCmd(kind artifact.Type) tea.Cmd {
	return func() tea.Msg {
		_ = t.browser.SetTypeFilter(t.ctx, kind)
		return historyUpdatedMsg{}
	}
}

// searchCmd runs a title-prefix search immediately. Debouncing happens in
// the event loop via searchTickMsg, not here.
func (t *TUI) searchCmd(term string) tea.Cmd {
	return func() tea.Msg {
		_ = t.browser.SearchNow(t.ctx, term)
		return historyUpdatedMsg{}
	}
}

// deleteCmd removes one record, or the whole selection in selection mode.
func (t *TUI) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		if t.browser.SelectionMode() {
			_ = t.browser.BulkDelete(t.ctx)
		} else {
			_ = t.browser.DeleteOne(t.ctx, id)
		}
		return historyUpdatedMsg{}
	}
}

// rehydrateCmd restores a stored record as the active artifact.
func (t *TUI) rehydrateCmd(rec store.Record) tea.Cmd {
	return func() tea.Msg {
		return rehydratedMsg{err: t.session.Rehydrate(rec)}
	}
}

// scheduleSearch returns the debounce tick for the current keystroke.
func (t *TUI) scheduleSearch() tea.Cmd {
	t.searchSeq++
	seq := t.searchSeq
	return tea.Tick(history.SearchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg{seq: seq}
	})
}
