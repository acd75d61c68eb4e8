package cmd

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/lumi-ai/lumi/internal/app"
	"github.com/lumi-ai/lumi/internal/history"
	"github.com/lumi-ai/lumi/internal/tui"
)

func newTUICmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), *verbose)
		},
	}
}

// runTUI backs both the tui command and the bare lumi invocation: an
// interactive terminal session over the same session and browser the other
// commands use.
func runTUI(ctx context.Context, verbose bool) error {
	return withApp(ctx, verbose, func(ctx context.Context, a *app.App) error {
		browser := history.New(ctx, a.Store, a.User.ID, a.Logger,
			history.WithPageSize(a.Config.PageSize),
			history.WithDebounce(a.Config.SearchDebounce()),
		)
		defer browser.Close()

		model, err := tui.New(ctx, a.Session, browser)
		if err != nil {
			return fmt.Errorf("creating TUI: %w", err)
		}

		program := tea.NewProgram(model, tea.WithContext(ctx))
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("TUI exited: %w", err)
		}
		return nil
	})
}
