package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trade-grid-lab/internal/journal"
)

func newRecordCmd(c *cli) *cobra.Command {
	var (
		form   = map[string]*string{}
		list   bool
		market string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a trade, or list recorded trades with --list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			svc, _, cleanup, err := c.newJournal(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()

			if list {
				trades, err := svc.ListTrades(ctx, market)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(trades)
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TRADE_ID\tNAME\tMARKET\tEXIT\tSTOP_LOSS\tMOST_ADVERSE\tUNREALIZED")
				for _, t := range trades {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
						t.TradeID, t.Name, t.Market, t.Exit, t.StopLoss, t.MostAdverse, t.UnrealizedProfit)
				}
				return tw.Flush()
			}

			values := make(map[string]string, len(form))
			for field, v := range form {
				values[field] = *v
			}
			values[journal.FieldMarket] = market

			in, err := journal.ParseTradeForm(values)
			if err != nil {
				return err
			}
			trade, err := svc.RecordTrade(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "recorded %s\n", trade.TradeID)
			return nil
		},
	}

	flags := cmd.Flags()
	for _, f := range []struct{ field, flag, usage string }{
		{journal.FieldName, "name", "trade label"},
		{journal.FieldExit, "exit", "exit profit (>= 0)"},
		{journal.FieldStopLoss, "stop-loss", "stop-loss offset (< 0)"},
		{journal.FieldMostAdverse, "most-adverse", "most adverse excursion (<= 0)"},
		{journal.FieldUnrealizedProfit, "unrealized-profit", "highest unrealized profit (>= 0)"},
	} {
		form[f.field] = flags.String(f.flag, "", f.usage)
	}
	flags.StringVar(&market, "market", "", "market name (filter when used with --list)")
	flags.BoolVar(&list, "list", false, "list recorded trades instead of recording one")
	flags.BoolVar(&asJSON, "json", false, "print --list output as JSON")
	return cmd
}
