package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"hexfm/internal/api"
	"hexfm/internal/config"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show ledger and catalog counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, service *api.Service) error {
				home, err := service.Home(cmd.Context())
				if err != nil {
					return err
				}
				dateRange, err := service.ScrobbleDateRange(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderSectionHeader("hexfm status", shouldColorize(out)))
				rows := [][]string{
					{"Scrobbles", strconv.Itoa(home.ScrobbleCount)},
					{"Matched", strconv.Itoa(home.MatchedCount)},
					{"Awaiting review", strconv.Itoa(home.UnreviewedCount)},
					{"Pending plays", strconv.Itoa(home.PendingCount)},
					{"Catalog tracks", strconv.Itoa(home.CatalogCount)},
					{"New tracks", strconv.Itoa(home.NewTracksCount)},
					{"Oldest play", formatUnix(dateRange.Start)},
					{"Newest play", formatUnix(dateRange.End)},
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Metric", "Value"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func formatUnix(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
