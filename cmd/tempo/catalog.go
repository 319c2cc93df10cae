package main

import (
	"github.com/spf13/cobra"

	"github.com/seantiz/tempo/internal/report"
)

func newCatalogCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the workloads and environments a suite may use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return report.Catalog(cmd.OutOrStdout(), c.newRegistry().List())
		},
	}
}
