package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"trade-grid-lab/internal/domain"
	"trade-grid-lab/internal/storage"
)

// Generator produces reports from stored runs.
type Generator struct {
	tradeStore storage.TradeStore
	runStore   storage.AnalysisRunStore
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(tradeStore storage.TradeStore, runStore storage.AnalysisRunStore) *Generator {
	return &Generator{
		tradeStore: tradeStore,
		runStore:   runStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// GenerateLatest builds a report for the latest run of a market filter.
func (g *Generator) GenerateLatest(ctx context.Context, market string) (*Report, error) {
	run, err := g.runStore.GetLatest(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("load latest run: %w", err)
	}
	return g.Generate(ctx, run)
}

// Generate builds a report for run.
func (g *Generator) Generate(ctx context.Context, run *domain.AnalysisRun) (*Report, error) {
	if run == nil {
		return nil, fmt.Errorf("%w: nil run", storage.ErrInvalidInput)
	}

	trades, err := g.tradeStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	return NewReport(run, trades, g.now()), nil
}

// NewReport builds a report for run from an already loaded trade list.
func NewReport(run *domain.AnalysisRun, trades []*domain.TradeRecord, generatedAt time.Time) *Report {
	return &Report{
		GeneratedAt: generatedAt,
		Run:         run,
		Ranked:      rankResults(run),
		Markets:     countMarkets(trades, run.Market),
	}
}

// rankResults orders results by total profit desc; ties keep grid order.
func rankResults(run *domain.AnalysisRun) []RankedResult {
	var actualProfit float64
	if run.Actual != nil {
		actualProfit = run.Actual.TotalProfit
	}

	rows := make([]RankedResult, len(run.Results))
	for i, r := range run.Results {
		rows[i] = RankedResult{
			Result:       r,
			IsBest:       run.Best != nil && r.Parameters() == run.Best.Parameters(),
			EdgeVsActual: r.TotalProfit - actualProfit,
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Result.TotalProfit > rows[j].Result.TotalProfit
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// countMarkets tallies trades per market, restricted to market when set.
func countMarkets(trades []*domain.TradeRecord, market string) []MarketRow {
	counts := make(map[string]int)
	for _, t := range trades {
		if market != "" && t.Market != market {
			continue
		}
		counts[t.Market]++
	}

	rows := make([]MarketRow, 0, len(counts))
	for m, n := range counts {
		rows = append(rows, MarketRow{Market: m, Trades: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Market < rows[j].Market
	})
	return rows
}
