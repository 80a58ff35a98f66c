package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hexfm/internal/api"
	"hexfm/internal/config"
)

func newNewTracksCommand(ctx *commandContext) *cobra.Command {
	newTracksCmd := &cobra.Command{
		Use:   "new-tracks",
		Short: "List tracks the last catalog sync added",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, service *api.Service) error {
				tracks, err := service.NewTracks(cmd.Context())
				if err != nil {
					return err
				}
				if len(tracks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no pending new tracks")
					return nil
				}
				rows := make([][]string, 0, len(tracks))
				for _, track := range tracks {
					rows = append(rows, []string{
						strconv.FormatInt(track.AddedID, 10),
						strconv.FormatInt(track.RatingKey, 10),
						track.ConcatKey,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Rating Key", "Track"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	newTracksCmd.AddCommand(newNewTracksAckCommand(ctx))
	return newTracksCmd
}

func newNewTracksAckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ack <id>...",
		Short: "Clear new-track markers after reviewing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid marker id %q", arg)
				}
				ids = append(ids, id)
			}
			return ctx.withService(func(_ *config.Config, service *api.Service) error {
				if err := service.AcknowledgeNewTracks(cmd.Context(), ids); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "acknowledged %d new track(s)\n", len(ids))
				return nil
			})
		},
	}
}
