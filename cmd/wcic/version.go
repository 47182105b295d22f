package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/what-can-i-cook/config"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", cfg.App.Name, cfg.App.Version)
			return nil
		},
	}
}
