package reporting

import (
	"time"

	"trade-grid-lab/internal/domain"
)

// Report is a rendered-ready view of one analysis run.
type Report struct {
	GeneratedAt time.Time
	Run         *domain.AnalysisRun

	// Results ranked by total profit (desc), grid order on ties
	Ranked []RankedResult

	// Trades per market at generation time, sorted by market
	Markets []MarketRow
}

// RankedResult is one grid pair with its rank and its edge over actual.
type RankedResult struct {
	Rank   int
	Result domain.PerformanceResult
	IsBest bool
	// TotalProfit minus the actual total profit
	EdgeVsActual float64
}

// MarketRow counts trades in one market.
type MarketRow struct {
	Market string
	Trades int
}
