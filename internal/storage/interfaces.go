package storage

import (
	"context"

	"trade-grid-lab/internal/domain"
)

// TradeStore provides access to trades storage.
// List methods return trades ordered by recorded_at ASC, trade_id ASC.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetAll retrieves all trades.
	GetAll(ctx context.Context) ([]*domain.TradeRecord, error)

	// GetByMarket retrieves all trades filed under a market.
	GetByMarket(ctx context.Context, market string) ([]*domain.TradeRecord, error)
}

// MarketStore provides access to markets storage.
type MarketStore interface {
	// Insert adds a new market. Returns ErrDuplicateKey if name exists.
	Insert(ctx context.Context, m *domain.Market) error

	// GetByName retrieves a market. Returns ErrNotFound if not exists.
	GetByName(ctx context.Context, name string) (*domain.Market, error)

	// GetAll retrieves all markets ordered by name ASC.
	GetAll(ctx context.Context) ([]*domain.Market, error)
}

// AnalysisRunStore provides access to analysis result history.
type AnalysisRunStore interface {
	// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.AnalysisRun) error

	// GetByRunID retrieves a run. Returns ErrNotFound if not exists.
	GetByRunID(ctx context.Context, runID string) (*domain.AnalysisRun, error)

	// GetLatest retrieves the most recent run for a market filter ("" = all markets).
	// Returns ErrNotFound if no run exists.
	GetLatest(ctx context.Context, market string) (*domain.AnalysisRun, error)
}
