// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"github.com/ManuGH/bbcd/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "bbcd",
		Short: "Clip recorder for live broadcast streams",
		Long: `bbcd records windows of live broadcast streams on request.

Without a subcommand it runs the daemon (same as "bbcd serve").`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (YAML)")

	root.AddCommand(
		newServeCmd(opts),
		newSourcesCmd(opts),
		newCalendarCmd(opts),
		newVersionCmd(),
	)
	return root
}

// loadConfig resolves the configuration the same way the daemon does.
func loadConfig(opts *rootOptions) (config.AppConfig, error) {
	return config.NewLoader(opts.configPath, version).Load()
}
