package main

import (
	"github.com/spf13/cobra"

	"github.com/seantiz/tempo/internal/api"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.cfg.ListenAddr = addr
			}
			c.logger.Info("tempo: starting",
				"listen_addr", c.cfg.ListenAddr,
				"db_path", c.cfg.DBPath,
				"default_timeout", c.cfg.DefaultTimeout.String(),
			)

			db, err := c.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			srv := api.NewServer(c.cfg.ListenAddr, db, c.newEngine(db), c.logger)
			return srv.Run()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides TEMPO_LISTEN_ADDR)")
	return cmd
}
