package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"uimock/mockapi/internal/app"
	"uimock/mockapi/internal/config"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, *cfg)
			if err != nil {
				return fmt.Errorf("create app: %w", err)
			}
			if err := a.Run(ctx); err != nil {
				return fmt.Errorf("run app: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Server bind address (env: HTTP_ADDR)")
	return cmd
}
