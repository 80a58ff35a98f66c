package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hexfm/internal/api"
	"hexfm/internal/config"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Work through scrobbles without a match",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	reviewCmd.AddCommand(newReviewNextCommand(ctx))
	reviewCmd.AddCommand(newReviewMatchCommand(ctx))
	reviewCmd.AddCommand(newReviewSkipCommand(ctx))
	reviewCmd.AddCommand(newReviewUnmatchCommand(ctx))
	return reviewCmd
}

func newReviewNextCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the next unreviewed scrobble with suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, service *api.Service) error {
				item, err := service.NextUnreviewed(cmd.Context())
				if err != nil {
					return err
				}
				if item == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "review queue is empty")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scrobble: %s (played %s)\n",
					item.Scrobble.ConcatKey, formatUnix(item.Scrobble.PlayedAt))
				if len(item.Suggestions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no suggestions; use `hexfm query` to browse the catalog")
					return nil
				}
				rows := make([][]string, 0, len(item.Suggestions))
				for _, suggestion := range item.Suggestions {
					rows = append(rows, []string{
						strconv.FormatInt(suggestion.Track.ID, 10),
						suggestion.Track.ConcatKey,
						strconv.Itoa(suggestion.Score),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Catalog Track", "Score"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func newReviewMatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "match <concat-key> <track-id>",
		Short: "Bind a scrobble key to a catalog track",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			trackID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid track id %q", args[1])
			}
			return ctx.withService(func(_ *config.Config, service *api.Service) error {
				if err := service.AssignMatch(cmd.Context(), args[0], trackID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "matched %q to catalog track %d\n", args[0], trackID)
				return nil
			})
		},
	}
}

func newReviewSkipCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "no-match <concat-key>",
		Short: "Record that a scrobble key has no catalog counterpart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, service *api.Service) error {
				if err := service.AssignNoMatch(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recorded no-match for %q\n", args[0])
				return nil
			})
		},
	}
}

func newReviewUnmatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unmatch <match-id>...",
		Short: "Dissolve matches and requeue their scrobbles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid match id %q", arg)
				}
				ids = append(ids, id)
			}
			return ctx.withService(func(_ *config.Config, service *api.Service) error {
				if err := service.DeleteMatches(cmd.Context(), ids); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "unmatched %d match(es)\n", len(ids))
				return nil
			})
		},
	}
}
