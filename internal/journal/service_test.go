package journal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-grid-lab/internal/domain"
	"trade-grid-lab/internal/simulation"
	"trade-grid-lab/internal/storage"
	"trade-grid-lab/internal/storage/memory"
)

// recordingCache is an in-memory AnalysisCache that records calls.
type recordingCache struct {
	runs        map[string]*domain.AnalysisRun
	invalidated []string
	getErr      error
}

func newRecordingCache() *recordingCache {
	return &recordingCache{runs: make(map[string]*domain.AnalysisRun)}
}

func (c *recordingCache) Get(_ context.Context, market string) (*domain.AnalysisRun, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	r, ok := c.runs[market]
	return r, ok, nil
}

func (c *recordingCache) Set(_ context.Context, market string, run *domain.AnalysisRun) error {
	c.runs[market] = run
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, market string) error {
	c.invalidated = append(c.invalidated, market)
	delete(c.runs, market)
	delete(c.runs, "")
	return nil
}

type fixture struct {
	svc    *Service
	trades *memory.TradeStore
	runs   *memory.AnalysisRunStore
	cache  *recordingCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := time.UnixMilli(1_700_000_000_000)
	ids := 0

	f := &fixture{
		trades: memory.NewTradeStore(),
		runs:   memory.NewAnalysisRunStore(),
		cache:  newRecordingCache(),
	}
	f.svc = New(Options{
		TradeStore:       f.trades,
		MarketStore:      memory.NewMarketStore(),
		AnalysisRunStore: f.runs,
		Cache:            f.cache,
		Now: func() time.Time {
			clock = clock.Add(time.Millisecond)
			return clock
		},
		NewID: func() string {
			ids++
			return fmt.Sprintf("run-%d", ids)
		},
	})

	ctx := context.Background()
	_, err := f.svc.AddMarket(ctx, "ES")
	require.NoError(t, err)
	_, err = f.svc.AddMarket(ctx, "NQ")
	require.NoError(t, err)
	return f
}

func record(t *testing.T, svc *Service, market string, exit, stop, adverse, unrealized int) *domain.TradeRecord {
	t.Helper()
	tr, err := svc.RecordTrade(context.Background(), domain.TradeInput{
		Name:             "t",
		Market:           market,
		Exit:             exit,
		StopLoss:         stop,
		MostAdverse:      adverse,
		UnrealizedProfit: unrealized,
	})
	require.NoError(t, err)
	return tr
}

func TestService_AddMarket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddMarket(ctx, "ES")
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = f.svc.AddMarket(ctx, "   ")
	assert.ErrorIs(t, err, ErrInvalidMarket)

	markets, err := f.svc.ListMarkets(ctx)
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "ES", markets[0].Name)
	assert.Equal(t, "NQ", markets[1].Name)
}

func TestService_RecordTrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr := record(t, f.svc, "ES", 10, -6, -3, 12)
	assert.Equal(t, 0, tr.Entry)
	assert.Len(t, tr.TradeID, 64)
	assert.Equal(t, []string{"ES"}, f.cache.invalidated)

	stored, err := f.trades.GetByID(ctx, tr.TradeID)
	require.NoError(t, err)
	assert.Equal(t, tr, stored)
}

func TestService_RecordTrade_IdenticalRepeatSameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	svc := New(Options{
		TradeStore:       memory.NewTradeStore(),
		MarketStore:      memory.NewMarketStore(),
		AnalysisRunStore: memory.NewAnalysisRunStore(),
		Now:              func() time.Time { return fixed },
	})
	ctx := context.Background()
	_, err := svc.AddMarket(ctx, "ES")
	require.NoError(t, err)

	in := validInput()
	first, err := svc.RecordTrade(ctx, in)
	require.NoError(t, err)
	second, err := svc.RecordTrade(ctx, in)
	require.NoError(t, err)

	assert.NotEqual(t, first.TradeID, second.TradeID)
	assert.Equal(t, first.RecordedAt, second.RecordedAt)

	all, err := svc.ListTrades(ctx, "ES")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_RecordTrade_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validInput()
	in.StopLoss = 3
	_, err := f.svc.RecordTrade(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidTrade)

	in = validInput()
	in.Market = "CL"
	_, err = f.svc.RecordTrade(ctx, in)
	assert.ErrorIs(t, err, ErrUnknownMarket)

	all, err := f.svc.ListTrades(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.cache.invalidated)
}

func TestService_ListTrades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := record(t, f.svc, "ES", 10, -6, -3, 12)
	b := record(t, f.svc, "NQ", 0, -6, -7, 5)
	c := record(t, f.svc, "ES", 20, -6, -3, 25)

	all, err := f.svc.ListTrades(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{a.TradeID, b.TradeID, c.TradeID},
		[]string{all[0].TradeID, all[1].TradeID, all[2].TradeID})

	es, err := f.svc.ListTrades(ctx, "ES")
	require.NoError(t, err)
	require.Len(t, es, 2)
	assert.Equal(t, a.TradeID, es[0].TradeID)
	assert.Equal(t, c.TradeID, es[1].TradeID)
}

func TestService_Analyze(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	record(t, f.svc, "ES", 10, -6, -3, 12)
	record(t, f.svc, "ES", 0, -6, -7, 5)

	run, err := f.svc.Analyze(ctx, "ES")
	require.NoError(t, err)

	assert.Equal(t, "run-1", run.RunID)
	assert.Equal(t, "ES", run.Market)
	assert.Equal(t, 2, run.TradeCount)
	require.Len(t, run.Results, 9)
	assert.Equal(t, domain.CandidateParameters{StopLoss: -6, Target: 10}, run.Best.Parameters())
	assert.InDelta(t, 4.0, run.Best.TotalProfit, 1e-9)
	assert.InDelta(t, 4.0, run.Actual.TotalProfit, 1e-9)

	stored, err := f.runs.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Best, stored.Best)

	// Second call is served from cache.
	again, err := f.svc.Analyze(ctx, "ES")
	require.NoError(t, err)
	assert.Equal(t, "run-1", again.RunID)

	// A new trade invalidates and forces a fresh run.
	record(t, f.svc, "ES", 16, -8, -2, 16)
	fresh, err := f.svc.Analyze(ctx, "ES")
	require.NoError(t, err)
	assert.Equal(t, "run-2", fresh.RunID)
	assert.Equal(t, 3, fresh.TradeCount)

	latest, err := f.svc.LatestRun(ctx, "ES")
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)
}

func TestService_Analyze_AllMarketsAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	record(t, f.svc, "ES", 10, -6, -3, 12)
	record(t, f.svc, "NQ", 0, -6, -7, 5)

	all, err := f.svc.Analyze(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, all.TradeCount)
	assert.Equal(t, "", all.Market)

	empty, err := f.svc.Analyze(ctx, "GC")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TradeCount)
	assert.Equal(t, domain.CandidateParameters{StopLoss: -6, Target: 10}, empty.Best.Parameters())
	assert.True(t, empty.Best.ProfitFactor.IsInf())
}

func TestService_Analyze_CacheErrorFallsThrough(t *testing.T) {
	f := newFixture(t)
	f.cache.getErr = errors.New("redis down")

	record(t, f.svc, "ES", 10, -6, -3, 12)

	run, err := f.svc.Analyze(context.Background(), "ES")
	require.NoError(t, err)
	assert.Equal(t, 1, run.TradeCount)
}

func TestService_Analyze_EntryNotZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Bypass RecordTrade to plant a corrupt row.
	require.NoError(t, f.trades.Insert(ctx, &domain.TradeRecord{
		TradeID: "bad", Name: "bad", Market: "NQ", Entry: 2, Exit: 5, StopLoss: -6,
	}))
	record(t, f.svc, "ES", 10, -6, -3, 12)

	_, err := f.svc.Analyze(ctx, "")
	assert.ErrorIs(t, err, simulation.ErrEntryNotZero)

	_, err = f.svc.LatestRun(ctx, "")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Filtering the corrupt row out lets the analysis succeed.
	run, err := f.svc.Analyze(ctx, "ES")
	require.NoError(t, err)
	assert.Equal(t, 1, run.TradeCount)
}

func TestService_GetRun_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
