// Package analysis evaluates every candidate (stop-loss, target) pair of a grid
// against a set of recorded trades and picks the best one by total profit.
package analysis

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"trade-grid-lab/internal/domain"
	"trade-grid-lab/internal/metrics"
	"trade-grid-lab/internal/simulation"
)

// Result is the output of one analysis call.
type Result struct {
	Best    *domain.PerformanceResult  // highest total profit, earliest pair on ties
	Results []domain.PerformanceResult // one per grid pair, enumeration order
	Actual  *domain.ActualPerformance  // trades' own recorded outcomes
}

// Analyzer runs the grid search. It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	grid domain.Grid
}

// New creates an Analyzer over domain.DefaultGrid.
func New() *Analyzer {
	return &Analyzer{grid: domain.DefaultGrid}
}

// newWithGrid creates an Analyzer over a custom grid.
func newWithGrid(grid domain.Grid) (*Analyzer, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{grid: grid}, nil
}

// pairOutcome holds one pair's simulated sequences.
type pairOutcome struct {
	hypothetical []int
	actual       []int
}

// Analyze filters trades by market (empty = no filter) and evaluates every grid pair.
// Pairs are simulated concurrently; results are reduced in enumeration order.
// A precondition violation on any trade aborts the call with no partial result.
func (a *Analyzer) Analyze(trades []*domain.TradeRecord, market string) (*Result, error) {
	filtered := FilterByMarket(trades, market)
	pairs := a.grid.Pairs()

	outcomes := make([]pairOutcome, len(pairs))
	var g errgroup.Group
	for i, pair := range pairs {
		g.Go(func() error {
			hyp, act, err := simulation.Simulate(pair, filtered)
			if err != nil {
				return fmt.Errorf("simulate %s: %w", pair, err)
			}
			outcomes[i] = pairOutcome{hypothetical: hyp, actual: act}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Results: make([]domain.PerformanceResult, len(pairs)),
	}

	bestIdx := -1
	for i, pair := range pairs {
		result.Results[i] = toPerformanceResult(pair, metrics.Summarize(outcomes[i].hypothetical))
		if bestIdx < 0 || result.Results[i].TotalProfit > result.Results[bestIdx].TotalProfit {
			bestIdx = i
		}
	}

	if bestIdx >= 0 {
		best := result.Results[bestIdx]
		result.Best = &best
		// Actual profits do not depend on the pair; the first pair's sequence is used.
		actual := toActualPerformance(metrics.Summarize(outcomes[0].actual))
		result.Actual = &actual
	}

	return result, nil
}

// FilterByMarket returns trades whose Market equals market, preserving order.
// An empty market returns trades unchanged.
func FilterByMarket(trades []*domain.TradeRecord, market string) []*domain.TradeRecord {
	if market == "" {
		return trades
	}

	filtered := make([]*domain.TradeRecord, 0, len(trades))
	for _, t := range trades {
		if t.Market == market {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func toPerformanceResult(pair domain.CandidateParameters, s metrics.Summary) domain.PerformanceResult {
	return domain.PerformanceResult{
		StopLoss:         pair.StopLoss,
		Target:           pair.Target,
		TotalTrades:      s.TotalTrades,
		Wins:             s.Wins,
		Losses:           s.Losses,
		TotalProfit:      s.TotalProfit,
		WinRate:          s.WinRate,
		ProfitFactor:     domain.Ratio(s.ProfitFactor),
		MaxDrawdown:      s.MaxDrawdown,
		CumulativeProfit: s.CumulativeProfit,
	}
}

func toActualPerformance(s metrics.Summary) domain.ActualPerformance {
	return domain.ActualPerformance{
		TotalTrades:      s.TotalTrades,
		Wins:             s.Wins,
		Losses:           s.Losses,
		TotalProfit:      s.TotalProfit,
		WinRate:          s.WinRate,
		ProfitFactor:     domain.Ratio(s.ProfitFactor),
		MaxDrawdown:      s.MaxDrawdown,
		CumulativeProfit: s.CumulativeProfit,
	}
}
