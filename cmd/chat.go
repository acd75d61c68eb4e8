package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumi-ai/lumi/internal/app"
	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/generate"
)

func newChatCmd(verbose *bool) *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Generate an explanation and discuss it interactively",
		Long: `Chat generates an explanation of the given study text and then reads
follow-up questions from stdin, one per line, until EOF (Ctrl+D).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				text, origin, err := src.resolve(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.ErrOrStderr(), "Generating explanation from %s...\n", origin)
				art, err := a.Session.Generate(ctx, artifact.TypeExplanation, text, generate.Options{
					Difficulty: a.Config.Difficulty,
				})
				if err != nil {
					return err
				}
				if art == nil {
					return nil
				}

				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderArtifact(art))
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Ask follow-up questions, Ctrl+D to quit.")

				return chatLoop(ctx, a, out)
			})
		},
	}

	src.register(cmd)
	return cmd
}

func chatLoop(ctx context.Context, a *app.App, out io.Writer) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		fmt.Fprint(out, "\nyou> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		reply, err := a.Session.SendChatMessage(ctx, question)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "\nlumi> %s\n", reply)
	}
}
