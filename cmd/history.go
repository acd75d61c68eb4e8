package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lumi-ai/lumi/internal/app"
	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/history"
	"github.com/lumi-ai/lumi/internal/store"
)

func newHistoryCmd(verbose *bool) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and manage generated study material",
	}

	historyCmd.AddCommand(
		newHistoryListCmd(verbose),
		newHistoryShowCmd(verbose),
		newHistoryDeleteCmd(verbose),
		newHistoryClearCmd(verbose),
	)

	return historyCmd
}

func newHistoryListCmd(verbose *bool) *cobra.Command {
	var (
		typeFilter string
		search     string
		limit      int
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List history records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := artifact.Type(typeFilter)
			if typeFilter != "" && !kind.Valid() {
				return fmt.Errorf("unknown artifact type %q", typeFilter)
			}
			if limit < 1 {
				limit = history.PageSize
			}

			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				return listHistory(ctx, a, cmd.OutOrStdout(), search, kind, limit, all)
			})
		},
	}

	cmd.Flags().StringVar(&typeFilter, "type", "", "restrict to quiz, explanation, mindmap or flashcards")
	cmd.Flags().StringVarP(&search, "search", "s", "", "title prefix search (sorts by title)")
	cmd.Flags().IntVarP(&limit, "limit", "n", history.PageSize, "records per page")
	cmd.Flags().BoolVar(&all, "all", false, "walk every page instead of the first")

	return cmd
}

func listHistory(ctx context.Context, a *app.App, out io.Writer, search string, kind artifact.Type, limit int, all bool) error {
	sort := store.Sort{Field: store.SortByCreatedAt, Desc: true}

	var (
		after *store.Cursor
		total int
	)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	for {
		q := history.BuildQuery(search, kind, sort, limit, after)
		recs, err := a.Store.SearchRecords(ctx, a.User.ID, q)
		if err != nil {
			return fmt.Errorf("listing history: %w", err)
		}

		hasMore := len(recs) > limit
		if hasMore {
			recs = recs[:limit]
		}

		for _, rec := range recs {
			score := ""
			if rec.Score != nil && rec.QuestionCount != nil {
				score = fmt.Sprintf("%d/%d", *rec.Score, *rec.QuestionCount)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				rec.ID, rec.Type, rec.Title, score, formatTime(rec.CreatedAt))
		}
		total += len(recs)

		if !hasMore || !all {
			if err := w.Flush(); err != nil {
				return err
			}
			if total == 0 {
				fmt.Fprintln(out, "No history yet. Generate something with `lumi generate`.")
			} else if hasMore {
				fmt.Fprintln(out, "... more records, use --all or raise --limit")
			}
			return nil
		}
		after = store.CursorFrom(recs[len(recs)-1])
	}
}

func newHistoryShowCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <record-id>",
		Short: "Show one history record in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				rec, err := findRecord(ctx, a, args[0])
				if err != nil {
					return err
				}

				art, err := artifact.Parse(rec.Type, rec.Payload)
				if err != nil {
					return fmt.Errorf("parsing record %s: %w", rec.ID, err)
				}
				if art.Title == "" {
					art.Title = rec.Title
				}

				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderArtifact(art))
				if rec.Score != nil && rec.QuestionCount != nil {
					fmt.Fprintf(out, "\nLast practice score: %d/%d\n", *rec.Score, *rec.QuestionCount)
				}
				return nil
			})
		},
	}
}

// findRecord scans the owner's records for id. The store exposes no point
// lookup; detail views always start from a listed record.
func findRecord(ctx context.Context, a *app.App, id string) (store.Record, error) {
	recs, err := a.Store.ListAllRecords(ctx, a.User.ID)
	if err != nil {
		return store.Record{}, fmt.Errorf("listing history: %w", err)
	}
	for _, rec := range recs {
		if rec.ID == id {
			return rec, nil
		}
	}
	return store.Record{}, fmt.Errorf("record %s: %w", id, store.ErrNotFound)
}

func newHistoryDeleteCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <record-id>...",
		Short: "Delete history records",
		Long: `Delete removes the named records. With multiple IDs the deletion is
atomic: either every record is removed or none is.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				if len(args) == 1 {
					if err := a.Store.DeleteRecord(ctx, a.User.ID, args[0]); err != nil {
						return fmt.Errorf("deleting record: %w", err)
					}
				} else {
					if err := a.Store.DeleteRecords(ctx, a.User.ID, args); err != nil {
						return fmt.Errorf("deleting records: %w", err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s)\n", len(args))
				return nil
			})
		},
	}
}

func newHistoryClearCmd(verbose *bool) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the entire history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear history without --yes")
			}
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				recs, err := a.Store.ListAllRecords(ctx, a.User.ID)
				if err != nil {
					return fmt.Errorf("listing history: %w", err)
				}
				if len(recs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "History is already empty")
					return nil
				}
				ids := make([]string, len(recs))
				for i, rec := range recs {
					ids[i] = rec.ID
				}
				if err := a.Store.DeleteRecords(ctx, a.User.ID, ids); err != nil {
					return fmt.Errorf("clearing history: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s)\n", len(ids))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}
