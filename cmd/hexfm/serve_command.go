package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hexfm/internal/api"
	"hexfm/internal/config"
	"hexfm/internal/logging"
)

var errNoBind = errors.New("api_bind is empty; set it in the configuration to serve the API")

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for the review frontend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(cfg *config.Config, service *api.Service) error {
				logger, err := ctx.newLogger()
				if err != nil {
					return err
				}
				server := api.NewServer(cfg, service, logger)
				if server == nil {
					return errNoBind
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				if err := server.Start(runCtx); err != nil {
					return err
				}
				defer server.Stop()

				logging.WithComponent(logger, "serve").Info("serving", "address", server.Addr())
				<-runCtx.Done()
				return nil
			})
		},
	}
}
