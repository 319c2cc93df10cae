package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seantiz/tempo/internal/engine"
	"github.com/seantiz/tempo/internal/report"
	"github.com/seantiz/tempo/internal/suite"
)

func newRunCmd(c *cli) *cobra.Command {
	var (
		timeout      time.Duration
		parallel     int
		skipFinished bool
	)

	cmd := &cobra.Command{
		Use:   "run SUITE",
		Short: "Run every benchmark of a suite file",
		Long: `Run loads a YAML or JSON suite, runs each benchmark repetition and
prints one line per run. It exits non-zero when any benchmark timed out or
failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := suite.Load(args[0])
			if err != nil {
				return err
			}

			db, err := c.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if !cmd.Flags().Changed("parallel") {
				parallel = c.cfg.Parallelism
			}

			eng := c.newEngine(db)
			c.logger.Info("running suite", "suite", s.Name, "runs", s.Size(), "parallelism", parallel)
			runs, err := eng.RunSuite(cmd.Context(), s, engine.SuiteOptions{
				Parallelism:  parallel,
				SkipFinished: skipFinished,
				Timeout:      timeout,
			})
			if err != nil {
				return err
			}

			if err := report.Runs(cmd.OutOrStdout(), runs); err != nil {
				return err
			}
			if sum := report.Summarize(runs); !sum.OK() {
				return fmt.Errorf("%d of %d benchmark runs did not succeed", sum.Total-sum.Success, sum.Total)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "deadline for benchmarks that set none (default TEMPO_DEFAULT_TIMEOUT)")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "benchmark runs to execute at once (default TEMPO_PARALLELISM)")
	cmd.Flags().BoolVar(&skipFinished, "skip-finished", false, "reuse recorded results for runs that already finished")
	return cmd
}
