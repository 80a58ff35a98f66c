package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hexfm/internal/api"
	"hexfm/internal/config"
)

func newPullCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Fetch new scrobbles from last.fm and auto-resolve them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, service *api.Service) error {
				summary, err := service.Pull(cmd.Context())
				if err != nil {
					return err
				}
				printPullSummary(cmd, summary)
				return nil
			})
		},
	}
}

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Reconcile the stored snapshot with the Plex library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, service *api.Service) error {
				summary, err := service.SyncCatalog(cmd.Context())
				if err != nil {
					return err
				}
				printCatalogSummary(cmd, summary)
				return nil
			})
		},
	}
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Propagate matched plays into Plex",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, service *api.Service) error {
				summary, err := service.ProcessMatches(cmd.Context())
				if err != nil {
					return err
				}
				printProcessSummary(cmd, summary)
				return nil
			})
		},
	}
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a full pass: catalog, pull, then process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, service *api.Service) error {
				catalogSummary, err := service.SyncCatalog(cmd.Context())
				if err != nil {
					return err
				}
				printCatalogSummary(cmd, catalogSummary)

				pullSummary, err := service.Pull(cmd.Context())
				if err != nil {
					return err
				}
				printPullSummary(cmd, pullSummary)

				processSummary, err := service.ProcessMatches(cmd.Context())
				if err != nil {
					return err
				}
				printProcessSummary(cmd, processSummary)
				return nil
			})
		},
	}
}

func printPullSummary(cmd *cobra.Command, summary api.PullSummary) {
	fmt.Fprintf(cmd.OutOrStdout(),
		"pull: fetched %d, inserted %d, matched %d, reused %d, queued %d\n",
		summary.Fetched, summary.Inserted, summary.Catalog, summary.Existing, summary.Unresolved)
	if summary.Truncated {
		fmt.Fprintln(cmd.OutOrStdout(), "pull: feed failed partway; fetched pages were kept, rerun to finish")
	}
}

func printCatalogSummary(cmd *cobra.Command, summary api.CatalogSummary) {
	fmt.Fprintf(cmd.OutOrStdout(),
		"catalog: added %d, updated %d, removed %d, unchanged %d, orphan matches %d\n",
		summary.Added, summary.Updated, summary.Removed, summary.Unchanged, summary.OrphanMatches)
}

func printProcessSummary(cmd *cobra.Command, summary api.ProcessSummary) {
	fmt.Fprintf(cmd.OutOrStdout(),
		"process: folded %d foreign plays, wrote %d plays, processed %d scrobbles\n",
		summary.FoldedPlays, summary.Plays, summary.Processed)
}
