package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumi-ai/lumi/internal/app"
	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/generate"
	"github.com/lumi-ai/lumi/internal/source"
)

// sourceFlags select where study text comes from. Exactly one of file, url
// or text may be set; with none set, text is read from stdin.
type sourceFlags struct {
	file string
	url  string
	text string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "read study text from a .txt or .md file")
	cmd.Flags().StringVarP(&f.url, "url", "u", "", "extract study text from a web page")
	cmd.Flags().StringVarP(&f.text, "text", "t", "", "study text given inline")
}

// resolve returns the study text and a human hint about where it came from.
func (f *sourceFlags) resolve(ctx context.Context) (text, origin string, err error) {
	set := 0
	for _, v := range []string{f.file, f.url, f.text} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return "", "", fmt.Errorf("--file, --url and --text are mutually exclusive")
	}

	switch {
	case f.file != "":
		text, err = source.FromFile(f.file)
		return text, filepath.Base(f.file), err
	case f.url != "":
		article, err := source.NewExtractor().FromURL(ctx, f.url)
		if err != nil {
			return "", "", err
		}
		return article.Text, article.Title, nil
	case f.text != "":
		return f.text, "inline text", nil
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", "", fmt.Errorf("no study text: pass --file, --url, --text or pipe text on stdin")
		}
		return string(data), "stdin", nil
	}
}

func newGenerateCmd(verbose *bool) *cobra.Command {
	var (
		src        sourceFlags
		difficulty string
	)

	cmd := &cobra.Command{
		Use:       "generate <quiz|explanation|mindmap|flashcards>",
		Short:     "Generate study material from text",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"quiz", "explanation", "mindmap", "flashcards"},
		Example: `  lumi generate quiz --file notes.md
  lumi generate explanation --url https://en.wikipedia.org/wiki/Photosynthesis
  cat chapter.txt | lumi generate flashcards`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := artifact.Type(args[0])
			if !kind.Valid() {
				return fmt.Errorf("unknown artifact type %q, want quiz, explanation, mindmap or flashcards", args[0])
			}

			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				text, origin, err := src.resolve(ctx)
				if err != nil {
					return err
				}

				if difficulty == "" {
					difficulty = a.Config.Difficulty
				}

				fmt.Fprintf(cmd.ErrOrStderr(), "Generating %s from %s...\n", kind, origin)
				art, err := a.Session.Generate(ctx, kind, text, generate.Options{Difficulty: difficulty})
				if err != nil {
					return err
				}
				if art == nil {
					return nil
				}

				fmt.Fprint(cmd.OutOrStdout(), renderArtifact(art))
				a.Session.Flush()
				return nil
			})
		},
	}

	src.register(cmd)
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "Easy, Medium or Hard (default from config)")

	return cmd
}
