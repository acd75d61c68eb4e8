package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Warm amber for LUMI branding.
const lumiAmber = "#F4B942"

// LUMI ASCII art (filled block style).
var lumiArt = []string{
	"    ██╗     ██╗   ██╗███╗   ███╗██╗",
	"    ██║     ██║   ██║████╗ ████║██║",
	"    ██║     ██║   ██║██╔████╔██║██║",
	"    ██║     ██║   ██║██║╚██╔╝██║██║",
	"    ███████╗╚██████╔╝██║ ╚═╝ ██║██║",
	"    ╚══════╝ ╚═════╝ ╚═╝     ╚═╝╚═╝",
}

// Styles contains all lipgloss styles for the TUI.
type Styles struct {
	Banner    lipgloss.Style
	Header    lipgloss.Style
	Title     lipgloss.Style
	User      lipgloss.Style
	Tutor     lipgloss.Style
	System    lipgloss.Style
	Error     lipgloss.Style
	Correct   lipgloss.Style
	Wrong     lipgloss.Style
	Selected  lipgloss.Style
	Dim       lipgloss.Style
	Prompt    lipgloss.Style
	Separator lipgloss.Style
	StatusBar lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(lumiAmber)),
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(lumiAmber)),
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Tutor:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		System:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Correct:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Wrong:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color(lumiAmber)),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
}

// RenderBanner returns the LUMI ASCII art banner as a styled string.
func (s Styles) RenderBanner() string {
	var b strings.Builder
	for _, line := range lumiArt {
		_, _ = b.WriteString(s.Banner.Render(line))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

// welcomeTips contains getting started tips displayed under the banner.
var welcomeTips = []string{
	"Tips for getting started:",
	"  • Paste any study text, then press Enter to generate",
	"  • Ctrl+T cycles the artifact type (quiz, explanation, mind map, flashcards)",
	"  • Ctrl+H opens your generation history",
	"  • Press Ctrl+C to cancel, Ctrl+D to exit",
}

// RenderWelcomeTips returns styled welcome tips.
func (s Styles) RenderWelcomeTips() string {
	var b strings.Builder
	for _, tip := range welcomeTips {
		_, _ = b.WriteString(s.StatusBar.Render(tip))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}
