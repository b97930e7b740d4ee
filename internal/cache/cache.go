// Package cache stores the latest analysis run per market filter.
package cache

import (
	"context"

	"trade-grid-lab/internal/domain"
)

// AnalysisCache caches analysis runs keyed by market filter ("" = all markets).
// Implementations must treat a missing entry as (nil, false, nil).
type AnalysisCache interface {
	Get(ctx context.Context, market string) (*domain.AnalysisRun, bool, error)
	Set(ctx context.Context, market string, run *domain.AnalysisRun) error
	// Invalidate drops the entry for market and the all-markets entry.
	Invalidate(ctx context.Context, market string) error
}

// NopCache never stores anything.
type NopCache struct{}

// Get always misses.
func (NopCache) Get(context.Context, string) (*domain.AnalysisRun, bool, error) {
	return nil, false, nil
}

// Set discards the run.
func (NopCache) Set(context.Context, string, *domain.AnalysisRun) error { return nil }

// Invalidate is a no-op.
func (NopCache) Invalidate(context.Context, string) error { return nil }

var _ AnalysisCache = NopCache{}
