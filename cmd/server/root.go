package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"uimock/mockapi/internal/config"
)

func newRootCmd() *cobra.Command {
	var cfg config.Config

	root := &cobra.Command{
		Use:   "mockapi",
		Short: "Mock authentication and resource API for front-end demos",
		Long: `mockapi serves canned fixtures behind a session login flow (with an OTP
step for privileged accounts) so a front-end can be demoed without a backend.

Configuration is read from the environment; see MOCKAPI_CONFIG_FILE for the
account table.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cmd.Flags().Changed("addr") {
				loaded.HTTP.Addr, _ = cmd.Flags().GetString("addr")
			}
			if cmd.Flags().Changed("fixture-dir") {
				loaded.Fixtures.Dir, _ = cmd.Flags().GetString("fixture-dir")
			}
			cfg = loaded
			return nil
		},
	}

	root.PersistentFlags().String("fixture-dir", "", "Directory of <key>.json fixture overrides (env: FIXTURE_DIR)")

	root.AddCommand(newServeCmd(&cfg))
	root.AddCommand(newFixturesCmd(&cfg))
	return root
}
