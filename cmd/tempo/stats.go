package main

import (
	"github.com/spf13/cobra"

	"github.com/seantiz/tempo/internal/report"
)

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate run statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			st, err := db.GetRunStats(cmd.Context())
			if err != nil {
				return err
			}
			return report.Stats(cmd.OutOrStdout(), st)
		},
	}
}
