package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumi-ai/lumi/internal/source"
)

func newImportCmd() *cobra.Command {
	var (
		file string
		url  string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Extract study text from a file or web page",
		Long: `Import reads a .txt or .md file, or extracts the readable article text
from a web page, applies the size bounds, and prints the result. Pipe it
into generate to inspect the text before spending a model call on it.`,
		Example: `  lumi import --url https://en.wikipedia.org/wiki/Photosynthesis > photo.txt
  lumi import --file chapter.md | lumi generate quiz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case file != "" && url != "":
				return fmt.Errorf("--file and --url are mutually exclusive")
			case file != "":
				text, err := source.FromFile(file)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			case url != "":
				article, err := source.NewExtractor().FromURL(cmd.Context(), url)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Title: %s\n", article.Title)
				fmt.Fprintln(cmd.OutOrStdout(), article.Text)
				return nil
			default:
				return fmt.Errorf("pass --file or --url")
			}
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read a .txt or .md file")
	cmd.Flags().StringVarP(&url, "url", "u", "", "extract article text from a web page")
	return cmd
}
