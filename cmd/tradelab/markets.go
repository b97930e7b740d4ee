package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMarketsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markets",
		Short: "Manage the market registry",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Register a market",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, _, cleanup, err := c.newJournal(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			m, err := svc.AddMarket(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", m.Name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered markets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, _, cleanup, err := c.newJournal(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			markets, err := svc.ListMarkets(ctx)
			if err != nil {
				return err
			}
			for _, m := range markets {
				fmt.Fprintln(cmd.OutOrStdout(), m.Name)
			}
			return nil
		},
	})
	return cmd
}
