package main

import (
	"github.com/spf13/cobra"

	"trade-grid-lab/internal/httpapi"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the trade journal and analysis HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			svc, _, cleanup, err := c.newJournal(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			httpCfg := httpapi.DefaultConfig()
			httpCfg.Addr = c.cfg.HTTP.Addr
			if cmd.Flags().Changed("addr") {
				httpCfg.Addr = addr
			}
			if c.cfg.HTTP.RequestTimeout > 0 {
				httpCfg.RequestTimeout = c.cfg.HTTP.RequestTimeout
			}

			c.logger.Info().
				Str("storage", c.cfg.Storage.Backend).
				Bool("cache", c.cfg.Cache.Enabled).
				Msg("tradelab starting")

			if err := httpapi.NewServer(svc, httpCfg, c.logger).Run(ctx); err != nil {
				return err
			}
			c.logger.Info().Msg("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides http.addr)")
	return cmd
}
