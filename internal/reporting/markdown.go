package reporting

import (
	"fmt"
	"strings"
	"time"

	"trade-grid-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	run := r.Run

	// Header
	sb.WriteString("# Strategy Grid Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Market: %s | Trades: %d\n\n",
		run.RunID, marketLabel(run.Market), run.TradeCount))

	// Best pair
	sb.WriteString("## Best Parameters\n\n")
	if run.Best != nil {
		sb.WriteString(fmt.Sprintf("Stop-loss **%d**, target **%d**: total profit %.0f, win rate %.2f%%, profit factor %s.\n\n",
			run.Best.StopLoss, run.Best.Target, run.Best.TotalProfit, run.Best.WinRate, formatRatio(run.Best.ProfitFactor)))
	} else {
		sb.WriteString("No results.\n\n")
	}

	// Grid
	sb.WriteString("## Grid Results\n\n")
	if len(r.Ranked) > 0 {
		sb.WriteString("| Rank | SL/TP | Trades | Wins | Losses | Total | WinRate | PF | MaxDD | vs Actual |\n")
		sb.WriteString("|------|-------|--------|------|--------|-------|---------|----|-------|-----------|\n")
		for _, row := range r.Ranked {
			m := row.Result
			pair := m.Parameters().String()
			if row.IsBest {
				pair = "**" + pair + "**"
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %d | %d | %d | %.0f | %.2f%% | %s | %.0f | %+.0f |\n",
				row.Rank, pair, m.TotalTrades, m.Wins, m.Losses,
				m.TotalProfit, m.WinRate, formatRatio(m.ProfitFactor), m.MaxDrawdown, row.EdgeVsActual))
		}
	} else {
		sb.WriteString("No grid results available.\n")
	}
	sb.WriteString("\n")

	// Actual
	sb.WriteString("## Actual Performance\n\n")
	if a := run.Actual; a != nil {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", a.TotalTrades))
		sb.WriteString(fmt.Sprintf("| Wins | %d |\n", a.Wins))
		sb.WriteString(fmt.Sprintf("| Losses | %d |\n", a.Losses))
		sb.WriteString(fmt.Sprintf("| Total Profit | %.0f |\n", a.TotalProfit))
		sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", a.WinRate))
		sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", formatRatio(a.ProfitFactor)))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %.0f |\n", a.MaxDrawdown))
	} else {
		sb.WriteString("No actual performance available.\n")
	}
	sb.WriteString("\n")

	// Markets
	if len(r.Markets) > 0 {
		sb.WriteString("## Markets\n\n")
		sb.WriteString("| Market | Trades |\n")
		sb.WriteString("|--------|--------|\n")
		for _, m := range r.Markets {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", m.Market, m.Trades))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func marketLabel(market string) string {
	if market == "" {
		return "all"
	}
	return market
}

// formatRatio renders a profit factor; +Inf prints as "inf".
func formatRatio(r domain.Ratio) string {
	if r.IsInf() {
		return "inf"
	}
	return fmt.Sprintf("%.4f", float64(r))
}
