package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"uimock/mockapi/internal/app"
	"uimock/mockapi/internal/config"
	"uimock/mockapi/internal/observability"
)

func newFixturesCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Inspect the configured fixtures",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load every fixture source and verify all served keys are present",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, store, err := app.NewResolver(cmd.Context(), *cfg, observability.NewLogger(cfg.LogLevel))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d fixtures loaded, %d required\n", store.Len(), len(resolver.RequiredFixtures()))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List fixture keys and their payload sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.LoadFixtures(cmd.Context(), cfg.Fixtures)
			if err != nil {
				return err
			}
			for _, key := range store.Keys() {
				payload, err := store.Load(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %6d bytes\n", key, len(payload))
			}
			return nil
		},
	})

	return cmd
}
