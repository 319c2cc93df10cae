package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/seantiz/tempo/internal/benchmark"
	"github.com/seantiz/tempo/internal/config"
	"github.com/seantiz/tempo/internal/engine"
	"github.com/seantiz/tempo/internal/environment"
	"github.com/seantiz/tempo/internal/registry"
	"github.com/seantiz/tempo/internal/store"
	"github.com/seantiz/tempo/internal/workload"
)

// cli holds state shared by every subcommand once flags are parsed.
type cli struct {
	envFile  string
	dbPath   string
	logLevel string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "tempo",
		Short: "Run benchmarks under a deadline and keep their results",
		Long: `tempo runs benchmark suites. Every benchmark enters its environment,
runs its workload under a timeout and exits the environment again; the
outcome (success, timeout or failure) is recorded in a SQLite database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file to read before the environment")
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "results database (overrides TEMPO_DB_PATH)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error (overrides TEMPO_LOG_LEVEL)")

	root.AddCommand(
		newRunCmd(c),
		newServeCmd(c),
		newResultsCmd(c),
		newStatsCmd(c),
		newCatalogCmd(c),
	)
	return root
}

// load resolves configuration: flags over environment over .env over defaults.
func (c *cli) load(logOut io.Writer) error {
	if err := config.LoadDotEnv(c.envFile); err != nil {
		return fmt.Errorf("load %s: %w", c.envFile, err)
	}
	c.cfg = config.Load()
	if c.dbPath != "" {
		c.cfg.DBPath = c.dbPath
	}
	if c.logLevel != "" {
		c.cfg.LogLevel = config.ParseLogLevel(c.logLevel)
	}
	c.logger = config.NewLogger(logOut, c.cfg.LogLevel)
	return nil
}

func (c *cli) openStore() (store.Store, error) {
	db, err := store.NewSQLiteStore(c.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func (c *cli) newRegistry() *registry.Registry {
	reg := registry.New()
	workload.Register(reg)
	environment.Register(reg, c.logger)
	return reg
}

func (c *cli) newEngine(db store.Store) *engine.Engine {
	exec := benchmark.NewExecutor(c.logger).WithDefaultTimeout(c.cfg.DefaultTimeout)
	return engine.NewEngine(db, c.newRegistry(), exec, c.logger)
}
