package main

import (
	"github.com/spf13/cobra"

	"github.com/seantiz/tempo/internal/report"
)

func newResultsCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			runs, _, err := db.ListRuns(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}
			return report.Runs(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}
