package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumi-ai/lumi/internal/app"
	"github.com/lumi-ai/lumi/internal/auth"
	"github.com/lumi-ai/lumi/internal/config"
)

// newAuthProvider builds the credential provider without wiring the full
// application; login must work before anything else is configured.
func newAuthProvider(verbose bool) (auth.Provider, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	credPath, err := config.CredentialPath()
	if err != nil {
		return nil, err
	}
	secret, err := app.LocalSecret(cfg)
	if err != nil {
		return nil, err
	}
	return auth.NewLocal(credPath, secret, newLogger(verbose)), nil
}

func newLoginCmd(verbose *bool) *cobra.Command {
	var (
		email string
		name  string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a named identity",
		Long: `Login establishes the identity that owns your history and notes. A
re-login with the same email keeps the existing history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}

			provider, err := newAuthProvider(*verbose)
			if err != nil {
				return err
			}
			user, err := provider.SignIn(cmd.Context(), email, name)
			if err != nil {
				return fmt.Errorf("signing in: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "identity email")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	return cmd
}

func newLogoutCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := newAuthProvider(*verbose)
			if err != nil {
				return err
			}
			if err := provider.SignOut(cmd.Context()); err != nil {
				return fmt.Errorf("signing out: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
