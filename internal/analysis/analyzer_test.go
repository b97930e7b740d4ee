package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-grid-lab/internal/domain"
	"trade-grid-lab/internal/simulation"
)

func makeTrade(id, market string, exit, stopLoss, mostAdverse, unrealized int) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:          id,
		Name:             id,
		Market:           market,
		Exit:             exit,
		StopLoss:         stopLoss,
		MostAdverse:      mostAdverse,
		UnrealizedProfit: unrealized,
	}
}

// Scenario A and B trades.
func tradeA() *domain.TradeRecord { return makeTrade("a", "ES", 10, -6, -3, 12) }
func tradeB() *domain.TradeRecord { return makeTrade("b", "ES", -6, -6, -8, 2) }

func TestAnalyze_ResultsEnumerateGridInOrder(t *testing.T) {
	res, err := New().Analyze([]*domain.TradeRecord{tradeA()}, "")
	require.NoError(t, err)

	require.Len(t, res.Results, 9)
	for i, pair := range domain.DefaultGrid.Pairs() {
		assert.Equal(t, pair, res.Results[i].Parameters(), "result %d", i)
	}
}

func TestAnalyze_ScenarioC(t *testing.T) {
	res, err := New().Analyze([]*domain.TradeRecord{tradeA(), tradeB()}, "")
	require.NoError(t, err)

	first := res.Results[0]
	assert.Equal(t, domain.CandidateParameters{StopLoss: -6, Target: 10}, first.Parameters())
	assert.InDelta(t, 4.0, first.TotalProfit, 1e-9)
	assert.InDelta(t, 50.0, first.WinRate, 1e-9)
	assert.InDelta(t, 10.0/6.0, float64(first.ProfitFactor), 1e-9)
	assert.Equal(t, []float64{10, 4}, first.CumulativeProfit)

	require.NotNil(t, res.Actual)
	assert.InDelta(t, 4.0, res.Actual.TotalProfit, 1e-9)
	assert.InDelta(t, 50.0, res.Actual.WinRate, 1e-9)
	assert.Equal(t, 2, res.Actual.TotalTrades)
}

func TestAnalyze_ScenarioD_Empty(t *testing.T) {
	res, err := New().Analyze(nil, "")
	require.NoError(t, err)

	require.Len(t, res.Results, 9)
	for _, r := range res.Results {
		assert.Equal(t, 0.0, r.TotalProfit)
		assert.True(t, r.ProfitFactor.IsInf(), "pair %v", r.Parameters())
		assert.Equal(t, 0.0, r.WinRate)
		assert.False(t, math.IsNaN(r.WinRate))
	}

	require.NotNil(t, res.Best)
	assert.Equal(t, domain.CandidateParameters{StopLoss: -6, Target: 10}, res.Best.Parameters())

	require.NotNil(t, res.Actual)
	assert.Equal(t, 0, res.Actual.TotalTrades)
	assert.True(t, res.Actual.ProfitFactor.IsInf())
}

func TestAnalyze_BestTieGoesToEarliestPair(t *testing.T) {
	// Never adverse enough for any stop, always past every target:
	// every pair books its target, so the three *_20 pairs tie at 20.
	res, err := New().Analyze([]*domain.TradeRecord{makeTrade("t", "ES", 20, -6, -3, 25)}, "")
	require.NoError(t, err)

	require.NotNil(t, res.Best)
	assert.Equal(t, domain.CandidateParameters{StopLoss: -6, Target: 20}, res.Best.Parameters())
	assert.Equal(t, 20.0, res.Best.TotalProfit)
}

func TestAnalyze_BestIsMaximum(t *testing.T) {
	// Adverse -7 stops out every -6 pair; only *_10 pairs reach the target.
	res, err := New().Analyze([]*domain.TradeRecord{makeTrade("t", "ES", 12, -12, -7, 12)}, "")
	require.NoError(t, err)

	assert.Equal(t, domain.CandidateParameters{StopLoss: -8, Target: 10}, res.Best.Parameters())
	for _, r := range res.Results {
		assert.GreaterOrEqual(t, res.Best.TotalProfit, r.TotalProfit)
	}
}

func TestAnalyze_ActualIndependentOfGrid(t *testing.T) {
	trades := []*domain.TradeRecord{tradeA(), tradeB(), makeTrade("c", "ES", 3, -8, -5, 4)}

	res, err := New().Analyze(trades, "")
	require.NoError(t, err)

	// c: -5 > -8, so actual = exit = 3
	assert.InDelta(t, 10.0-6.0+3.0, res.Actual.TotalProfit, 1e-9)
	assert.Equal(t, []float64{10, 4, 7}, res.Actual.CumulativeProfit)
}

func TestAnalyze_MarketFilterEquivalence(t *testing.T) {
	mixed := []*domain.TradeRecord{
		makeTrade("1", "ES", 10, -6, -3, 12),
		makeTrade("2", "NQ", 0, -8, -9, 0),
		makeTrade("3", "ES", -6, -6, -8, 2),
		makeTrade("4", "NQ", 16, -6, -1, 18),
	}
	prefiltered := []*domain.TradeRecord{mixed[0], mixed[2]}

	filteredRes, err := New().Analyze(mixed, "ES")
	require.NoError(t, err)
	directRes, err := New().Analyze(prefiltered, "")
	require.NoError(t, err)

	assert.Equal(t, directRes, filteredRes)
}

func TestAnalyze_UnknownMarketIsEmpty(t *testing.T) {
	res, err := New().Analyze([]*domain.TradeRecord{tradeA()}, "CL")
	require.NoError(t, err)

	for _, r := range res.Results {
		assert.Equal(t, 0, r.TotalTrades)
	}
}

func TestAnalyze_EntryNotZeroAborts(t *testing.T) {
	bad := tradeB()
	bad.Entry = 1

	res, err := New().Analyze([]*domain.TradeRecord{tradeA(), bad}, "")
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, simulation.ErrEntryNotZero), "got %v", err)
}

func TestAnalyze_EntryNotZeroOutsideFilterIgnored(t *testing.T) {
	bad := makeTrade("x", "NQ", 0, -6, -1, 0)
	bad.Entry = 3

	_, err := New().Analyze([]*domain.TradeRecord{tradeA(), bad}, "ES")
	assert.NoError(t, err)
}

func TestAnalyze_Deterministic(t *testing.T) {
	trades := []*domain.TradeRecord{tradeA(), tradeB(), makeTrade("c", "ES", 20, -12, -10, 22)}
	a := New()

	first, err := a.Analyze(trades, "")
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := a.Analyze(trades, "")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAnalyzer_CustomGrid(t *testing.T) {
	a, err := newWithGrid(domain.Grid{StopLosses: []int{-4}, Targets: []int{8, 12}})
	require.NoError(t, err)

	res, err := a.Analyze([]*domain.TradeRecord{tradeA()}, "")
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, 8.0, res.Results[0].TotalProfit)
	// 12 >= 12 reaches the second target too
	assert.Equal(t, 12.0, res.Results[1].TotalProfit)
	assert.Equal(t, 12, res.Best.Target)

	_, err = newWithGrid(domain.Grid{StopLosses: []int{4}, Targets: []int{8}})
	assert.Error(t, err)
}

func TestFilterByMarket_PreservesOrder(t *testing.T) {
	trades := []*domain.TradeRecord{
		makeTrade("1", "ES", 0, -6, 0, 0),
		makeTrade("2", "NQ", 0, -6, 0, 0),
		makeTrade("3", "ES", 0, -6, 0, 0),
	}

	got := FilterByMarket(trades, "ES")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].TradeID)
	assert.Equal(t, "3", got[1].TradeID)

	assert.Len(t, FilterByMarket(trades, ""), 3)
}
