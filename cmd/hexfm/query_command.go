package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hexfm/internal/api"
	"hexfm/internal/config"
)

func newQueryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "query <term>...",
		Short: "Search the stored catalog snapshot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, service *api.Service) error {
				tracks, err := service.Query(cmd.Context(), strings.Join(args, " "), limit)
				if err != nil {
					return err
				}
				if len(tracks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no catalog tracks match")
					return nil
				}
				rows := make([][]string, 0, len(tracks))
				for _, track := range tracks {
					rows = append(rows, []string{
						strconv.FormatInt(track.ID, 10),
						track.Artist,
						track.Album,
						track.Track,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Artist", "Album", "Track"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 30, "Maximum number of results")
	return cmd
}
