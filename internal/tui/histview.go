package tui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/lumi-ai/lumi/internal/artifact"
)

// typeFilterCycle is the filter order for the 'f' key: all types first,
// then each artifact type in display order.
func nextTypeFilter(current artifact.Type) artifact.Type {
	kinds := artifact.Types()
	if current == "" {
		return kinds[0]
	}
	for i, k := range kinds {
		if k == current {
			if i == len(kinds)-1 {
				return ""
			}
			return kinds[i+1]
		}
	}
	return ""
}

func (t *TUI) handleHistoryKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	// Search mode owns the keyboard except Esc and Enter.
	if t.searchMode {
		switch k.Code {
		case tea.KeyEscape:
			t.searchMode = false
			t.rebuildViewportContent()
			return t, nil
		case tea.KeyEnter:
			t.searchMode = false
			return t, t.searchCmd(t.searchInput.Value())
		}
		var cmd tea.Cmd
		t.searchInput, cmd = t.searchInput.Update(msg)
		// Every keystroke re-arms the debounce timer.
		return t, tea.Batch(cmd, t.scheduleSearch())
	}

	records := t.browser.Records()

	switch k.Code {
	case tea.KeyEscape:
		if t.browser.Drawer() != nil {
			t.browser.CloseDetail()
			t.rebuildViewportContent()
			return t, nil
		}
		if t.browser.SelectionMode() {
			t.browser.SetSelectionMode(false)
			t.rebuildViewportContent()
			return t, nil
		}
		t.screen = ScreenDashboard
		t.rebuildViewportContent()
		return t, t.input.Focus()

	case tea.KeyUp:
		if t.histIdx > 0 {
			t.histIdx--
			t.rebuildViewportContent()
		}
		return t, nil

	case tea.KeyDown:
		if t.histIdx < len(records)-1 {
			t.histIdx++
			t.rebuildViewportContent()
			return t, nil
		}
		// Scrolled past the end: fetch the next page.
		if t.browser.HasMore() {
			return t, t.loadMoreCmd()
		}
		return t, nil

	case tea.KeyEnter:
		if t.histIdx >= len(records) {
			return t, nil
		}
		rec := records[t.histIdx]
		if err := t.browser.OpenDetail(rec.ID); err == nil {
			return t, t.rehydrateCmd(rec)
		}
		return t, nil

	case tea.KeySpace:
		if t.browser.SelectionMode() && t.histIdx < len(records) {
			t.browser.ToggleSelection(records[t.histIdx].ID)
			t.rebuildViewportContent()
		}
		return t, nil

	case '/':
		t.searchMode = true
		t.searchInput.Reset()
		t.rebuildViewportContent()
		return t, t.searchInput.Focus()

	case 'f':
		next := nextTypeFilter(t.currentFilter)
		t.currentFilter = next
		t.histIdx = 0
		return t, t.setFilterCmd(next)

	case 's':
		t.browser.SetSelectionMode(!t.browser.SelectionMode())
		t.rebuildViewportContent()
		return t, nil

	case 'd':
		if t.browser.SelectionMode() {
			if len(t.browser.Selected()) == 0 {
				return t, nil
			}
			return t, t.deleteCmd("")
		}
		if t.histIdx < len(records) {
			return t, t.deleteCmd(records[t.histIdx].ID)
		}
		return t, nil
	}

	return t, nil
}
