package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumi-ai/lumi/api"
	"github.com/lumi-ai/lumi/internal/app"
)

func newServeCmd(verbose *bool) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve exposes generation, history and notes over HTTP. The server
shuts down gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				if addr == "" {
					addr = a.Config.ListenAddr
				}

				srv := api.NewServer(a.Session, a.Store, a.Notes, a.User.ID, a.ReadyCheck(), a.Logger)

				a.Logger.Info("HTTP server starting",
					"addr", addr,
					"version", AppVersion,
				)
				if err := srv.Run(ctx, addr); err != nil {
					return fmt.Errorf("HTTP server: %w", err)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config)")
	return cmd
}
