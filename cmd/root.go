// Package cmd implements the lumi command line interface.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumi-ai/lumi/internal/app"
	"github.com/lumi-ai/lumi/internal/config"
	"github.com/lumi-ai/lumi/internal/log"
)

// closeTimeout bounds resource teardown after a command finishes.
const closeTimeout = 10 * time.Second

// NewRootCmd builds the command tree. Commands resolve their dependencies
// lazily so `lumi version` and `lumi --help` work without a configured
// environment.
func NewRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "lumi",
		Short: "Lumi - AI study material generator",
		Long: `Lumi turns any text into study material: quizzes, explanations,
mind maps and flashcards, generated with Gemini and kept in your
personal history.

Running lumi with no arguments opens the interactive terminal UI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newGenerateCmd(&verbose),
		newChatCmd(&verbose),
		newHistoryCmd(&verbose),
		newNotesCmd(&verbose),
		newImportCmd(),
		newServeCmd(&verbose),
		newTUICmd(&verbose),
		newLoginCmd(&verbose),
		newLogoutCmd(&verbose),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command with signal-driven cancellation.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return NewRootCmd().ExecuteContext(ctx)
}

func newLogger(verbose bool) log.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

// withApp loads and validates configuration, wires the application and
// runs fn, closing everything afterwards.
func withApp(ctx context.Context, verbose bool, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := newLogger(verbose)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), closeTimeout)
		defer closeCancel()
		if closeErr := a.Close(closeCtx); closeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: shutdown error: %v\n", closeErr)
		}
	}()

	return fn(ctx, a)
}
