package reporting

import (
	"fmt"
	"strings"

	"trade-grid-lab/internal/domain"
)

// RenderCSV renders a run's grid results in grid order, followed by one actual row.
func RenderCSV(run *domain.AnalysisRun) string {
	var sb strings.Builder

	// Header
	sb.WriteString("kind,stop_loss,target,total_trades,wins,losses,")
	sb.WriteString("total_profit,win_rate,profit_factor,max_drawdown,is_best\n")

	// Rows
	for _, m := range run.Results {
		best := run.Best != nil && m.Parameters() == run.Best.Parameters()
		sb.WriteString(fmt.Sprintf("hypothetical,%d,%d,%d,%d,%d,%.0f,%.6f,%s,%.0f,%t\n",
			m.StopLoss,
			m.Target,
			m.TotalTrades,
			m.Wins,
			m.Losses,
			m.TotalProfit,
			m.WinRate,
			formatRatio(m.ProfitFactor),
			m.MaxDrawdown,
			best,
		))
	}

	if a := run.Actual; a != nil {
		sb.WriteString(fmt.Sprintf("actual,,,%d,%d,%d,%.0f,%.6f,%s,%.0f,false\n",
			a.TotalTrades,
			a.Wins,
			a.Losses,
			a.TotalProfit,
			a.WinRate,
			formatRatio(a.ProfitFactor),
			a.MaxDrawdown,
		))
	}

	return sb.String()
}
