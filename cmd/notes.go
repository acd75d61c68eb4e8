package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lumi-ai/lumi/internal/app"
	"github.com/lumi-ai/lumi/internal/store"
)

func newNotesCmd(verbose *bool) *cobra.Command {
	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage personal study notes",
	}

	notesCmd.AddCommand(
		newNotesAddCmd(verbose),
		newNotesListCmd(verbose),
		newNotesEditCmd(verbose),
		newNotesRmCmd(verbose),
	)

	return notesCmd
}

func newNotesAddCmd(verbose *bool) *cobra.Command {
	var (
		title string
		tag   string
	)

	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				note, err := a.Notes.Create(ctx, title, args[0], tag)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created note %s\n", note.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "note title")
	cmd.Flags().StringVar(&tag, "tag", "", "note tag")
	return cmd
}

func newNotesListCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notes, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				notes, err := a.Notes.List(ctx)
				if err != nil {
					return err
				}
				if len(notes) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No notes yet. Add one with `lumi notes add`.")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, n := range notes {
					tag := n.Tag
					if tag != "" {
						tag = "#" + tag
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						n.ID, n.Title, tag, truncate(n.Content, 60), formatTime(n.UpdatedAt))
				}
				return w.Flush()
			})
		},
	}
}

func newNotesEditCmd(verbose *bool) *cobra.Command {
	var (
		title   string
		content string
		tag     string
	)

	cmd := &cobra.Command{
		Use:   "edit <note-id>",
		Short: "Update a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := store.NotePatch{}
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("content") {
				patch.Content = &content
			}
			if cmd.Flags().Changed("tag") {
				patch.Tag = &tag
			}
			if patch.Title == nil && patch.Content == nil && patch.Tag == nil {
				return fmt.Errorf("nothing to change: pass --title, --content or --tag")
			}

			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				note, err := a.Notes.Update(ctx, args[0], patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated note %s\n", note.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().StringVar(&tag, "tag", "", "new tag")
	return cmd
}

func newNotesRmCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <note-id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				if err := a.Notes.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %s\n", args[0])
				return nil
			})
		},
	}
}
