// Package journal records trades and runs grid analyses over them.
// Flow: validate -> store -> invalidate cache; cache -> load -> analyze -> persist.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trade-grid-lab/internal/analysis"
	"trade-grid-lab/internal/cache"
	"trade-grid-lab/internal/domain"
	"trade-grid-lab/internal/idhash"
	"trade-grid-lab/internal/observability"
	"trade-grid-lab/internal/storage"
)

// Service coordinates the trade journal and analysis history.
type Service struct {
	trades   storage.TradeStore
	markets  storage.MarketStore
	runs     storage.AnalysisRunStore
	cache    cache.AnalysisCache
	analyzer *analysis.Analyzer
	log      zerolog.Logger

	now      func() time.Time
	newID    func() string
	newNonce func() string
}

// Options for creating Service.
type Options struct {
	// Required stores
	TradeStore       storage.TradeStore
	MarketStore      storage.MarketStore
	AnalysisRunStore storage.AnalysisRunStore

	// Optional
	Cache    cache.AnalysisCache // defaults to NopCache
	Analyzer *analysis.Analyzer  // defaults to the fixed 3x3 grid
	Logger   *zerolog.Logger     // defaults to a no-op logger

	// Test hooks
	Now      func() time.Time
	NewID    func() string // analysis run IDs
	NewNonce func() string // per-trade ID nonce
}

// New creates a new Service.
func New(opts Options) *Service {
	s := &Service{
		trades:   opts.TradeStore,
		markets:  opts.MarketStore,
		runs:     opts.AnalysisRunStore,
		cache:    opts.Cache,
		analyzer: opts.Analyzer,
		now:      opts.Now,
		newID:    opts.NewID,
		newNonce: opts.NewNonce,
		log:      zerolog.Nop(),
	}
	if s.cache == nil {
		s.cache = cache.NopCache{}
	}
	if s.analyzer == nil {
		s.analyzer = analysis.New()
	}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("component", "journal").Logger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.newNonce == nil {
		s.newNonce = uuid.NewString
	}
	return s
}

// AddMarket registers a market name.
func (s *Service) AddMarket(ctx context.Context, name string) (*domain.Market, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidMarket)
	}

	m := &domain.Market{Name: name, CreatedAt: s.now().UnixMilli()}
	if err := s.markets.Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("add market %s: %w", name, err)
	}

	observability.RecordMarketAdded()
	s.log.Info().Str("market", name).Msg("market added")
	return m, nil
}

// ListMarkets returns all markets ordered by name.
func (s *Service) ListMarkets(ctx context.Context) ([]*domain.Market, error) {
	markets, err := s.markets.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	return markets, nil
}

// RecordTrade validates and stores a trade. Entry is always stored as 0.
func (s *Service) RecordTrade(ctx context.Context, in domain.TradeInput) (*domain.TradeRecord, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Market = strings.TrimSpace(in.Market)

	if err := ValidateTradeInput(in); err != nil {
		observability.RecordValidationFailure(failureReason(err))
		s.log.Debug().Err(err).Msg("trade rejected")
		return nil, err
	}

	if _, err := s.markets.GetByName(ctx, in.Market); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			observability.RecordValidationFailure(FieldMarket)
			return nil, fmt.Errorf("%w: %s", ErrUnknownMarket, in.Market)
		}
		return nil, fmt.Errorf("lookup market %s: %w", in.Market, err)
	}

	recordedAt := s.now().UnixMilli()
	t := &domain.TradeRecord{
		TradeID:          idhash.ComputeTradeID(in, recordedAt, s.newNonce()),
		Name:             in.Name,
		Market:           in.Market,
		Entry:            0,
		Exit:             in.Exit,
		StopLoss:         in.StopLoss,
		MostAdverse:      in.MostAdverse,
		UnrealizedProfit: in.UnrealizedProfit,
		RecordedAt:       recordedAt,
	}

	if err := s.trades.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("insert trade: %w", err)
	}

	if err := s.cache.Invalidate(ctx, t.Market); err != nil {
		observability.RecordCacheError("invalidate")
		s.log.Warn().Err(err).Str("market", t.Market).Msg("cache invalidate failed")
	}

	observability.RecordTrade(t.Market)
	s.log.Info().
		Str("trade_id", t.TradeID).
		Str("market", t.Market).
		Int("exit", t.Exit).
		Msg("trade recorded")
	return t, nil
}

// ListTrades returns trades for market, or all trades when market is empty.
func (s *Service) ListTrades(ctx context.Context, market string) ([]*domain.TradeRecord, error) {
	var (
		trades []*domain.TradeRecord
		err    error
	)
	if market == "" {
		trades, err = s.trades.GetAll(ctx)
	} else {
		trades, err = s.trades.GetByMarket(ctx, market)
	}
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	return trades, nil
}

// Analyze runs the grid analysis for a market filter ("" = all markets).
// A cached run is returned when present; otherwise the new run is persisted
// and cached. Cache failures are logged and never fail the call.
func (s *Service) Analyze(ctx context.Context, market string) (*domain.AnalysisRun, error) {
	market = strings.TrimSpace(market)
	logger := s.log.With().Str("market", market).Logger()

	cached, found, err := s.cache.Get(ctx, market)
	if err != nil {
		observability.RecordCacheError("get")
		logger.Warn().Err(err).Msg("cache get failed")
	}
	observability.RecordCacheLookup(found)
	if found {
		logger.Debug().Str("run_id", cached.RunID).Msg("analysis served from cache")
		return cached, nil
	}

	start := s.now()

	trades, err := s.trades.GetAll(ctx)
	if err != nil {
		observability.RecordAnalysis("error", 0, 0)
		return nil, fmt.Errorf("load trades: %w", err)
	}

	result, err := s.analyzer.Analyze(trades, market)
	if err != nil {
		observability.RecordAnalysis("error", s.now().Sub(start).Seconds(), 0)
		logger.Error().Err(err).Msg("analysis failed")
		return nil, fmt.Errorf("analyze: %w", err)
	}

	run := &domain.AnalysisRun{
		RunID:      s.newID(),
		Market:     market,
		TradeCount: result.Best.TotalTrades,
		CreatedAt:  s.now().UnixMilli(),
		Best:       result.Best,
		Results:    result.Results,
		Actual:     result.Actual,
	}

	if err := s.runs.Insert(ctx, run); err != nil {
		observability.RecordAnalysis("error", s.now().Sub(start).Seconds(), run.TradeCount)
		return nil, fmt.Errorf("persist run: %w", err)
	}

	if err := s.cache.Set(ctx, market, run); err != nil {
		observability.RecordCacheError("set")
		logger.Warn().Err(err).Msg("cache set failed")
	}

	observability.RecordAnalysis("ok", s.now().Sub(start).Seconds(), run.TradeCount)
	observability.UpdateBestProfit(market, run.Best.TotalProfit)
	logger.Info().
		Str("run_id", run.RunID).
		Int("trades", run.TradeCount).
		Str("best", run.Best.Parameters().String()).
		Float64("best_profit", run.Best.TotalProfit).
		Float64("actual_profit", run.Actual.TotalProfit).
		Msg("analysis completed")
	return run, nil
}

// GetRun returns a persisted run by ID.
func (s *Service) GetRun(ctx context.Context, runID string) (*domain.AnalysisRun, error) {
	run, err := s.runs.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// LatestRun returns the most recent persisted run for a market filter.
func (s *Service) LatestRun(ctx context.Context, market string) (*domain.AnalysisRun, error) {
	run, err := s.runs.GetLatest(ctx, strings.TrimSpace(market))
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}
