package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"trade-grid-lab/internal/reporting"
)

func newReportCmd(c *cli) *cobra.Command {
	var (
		market string
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the latest stored analysis run without recomputing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			_, st, cleanup, err := c.newJournal(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := reporting.NewGenerator(st.trades, st.runs).GenerateLatest(ctx, market)
			if err != nil {
				return err
			}

			var body string
			switch format {
			case "markdown", "md":
				body = reporting.RenderMarkdown(report)
			case "csv":
				body = reporting.RenderCSV(report.Run)
			default:
				return fmt.Errorf("unknown format %q (markdown, csv)", format)
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
			_, err = io.WriteString(out, body)
			return err
		},
	}

	cmd.Flags().StringVar(&market, "market", "", "market filter of the run to render (empty = all)")
	cmd.Flags().StringVar(&format, "format", "markdown", "output format: markdown, csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write output to file instead of stdout")
	return cmd
}
