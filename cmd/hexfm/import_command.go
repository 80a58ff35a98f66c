package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hexfm/internal/api"
	"hexfm/internal/config"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Bulk-load a last.fm CSV history export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, service *api.Service) error {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open export: %w", err)
				}
				defer file.Close()

				summary, err := service.ImportCSV(cmd.Context(), file)
				if err != nil {
					return err
				}
				printPullSummary(cmd, summary)
				return nil
			})
		},
	}
}
