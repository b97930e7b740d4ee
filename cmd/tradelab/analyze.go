package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"trade-grid-lab/internal/domain"
	"trade-grid-lab/internal/reporting"
)

func newAnalyzeCmd(c *cli) *cobra.Command {
	var (
		market string
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the stop-loss/target grid over recorded trades",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			svc, st, cleanup, err := c.newJournal(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			run, err := svc.Analyze(ctx, market)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			switch format {
			case "summary":
				writeSummary(out, run)
			case "csv":
				_, err = io.WriteString(out, reporting.RenderCSV(run))
			case "markdown", "md":
				trades, lerr := st.trades.GetAll(ctx)
				if lerr != nil {
					return fmt.Errorf("load trades: %w", lerr)
				}
				report := reporting.NewReport(run, trades, time.Now().UTC())
				_, err = io.WriteString(out, reporting.RenderMarkdown(report))
			default:
				return fmt.Errorf("unknown format %q (summary, markdown, csv)", format)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&market, "market", "", "restrict analysis to one market (empty = all)")
	cmd.Flags().StringVar(&format, "format", "summary", "output format: summary, markdown, csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write output to file instead of stdout")
	return cmd
}

func writeSummary(w io.Writer, run *domain.AnalysisRun) {
	market := run.Market
	if market == "" {
		market = "all markets"
	}
	fmt.Fprintf(w, "Run %s (%s, %d trades)\n", run.RunID, market, run.TradeCount)
	if run.Best != nil {
		b := run.Best
		fmt.Fprintf(w, "Best: stop_loss=%d target=%d total_profit=%.0f winrate=%.2f%% profit_factor=%s max_drawdown=%.0f\n",
			b.StopLoss, b.Target, b.TotalProfit, b.WinRate, ratioString(b.ProfitFactor), b.MaxDrawdown)
	}
	if run.Actual != nil {
		a := run.Actual
		fmt.Fprintf(w, "Actual: total_profit=%.0f winrate=%.2f%% profit_factor=%s max_drawdown=%.0f\n",
			a.TotalProfit, a.WinRate, ratioString(a.ProfitFactor), a.MaxDrawdown)
	}
}

func ratioString(r domain.Ratio) string {
	if r.IsInf() {
		return "inf"
	}
	return fmt.Sprintf("%.4f", float64(r))
}
