package memory

import (
	"context"
	"sync"

	"trade-grid-lab/internal/domain"
	"trade-grid-lab/internal/storage"
)

// AnalysisRunStore is an in-memory implementation of storage.AnalysisRunStore.
type AnalysisRunStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.AnalysisRun // keyed by run_id
	order []string                       // run_ids in insertion order
}

// NewAnalysisRunStore creates a new in-memory analysis run store.
func NewAnalysisRunStore() *AnalysisRunStore {
	return &AnalysisRunStore{
		data: make(map[string]*domain.AnalysisRun),
	}
}

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *AnalysisRunStore) Insert(_ context.Context, r *domain.AnalysisRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = cloneRun(r)
	s.order = append(s.order, r.RunID)
	return nil
}

// GetByRunID retrieves a run. Returns ErrNotFound if not exists.
func (s *AnalysisRunStore) GetByRunID(_ context.Context, runID string) (*domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneRun(r), nil
}

// GetLatest retrieves the most recent run for a market filter.
// Latest is by created_at, falling back to insertion order on ties.
func (s *AnalysisRunStore) GetLatest(_ context.Context, market string) (*domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.AnalysisRun
	for _, id := range s.order {
		r := s.data[id]
		if r.Market != market {
			continue
		}
		if latest == nil || r.CreatedAt >= latest.CreatedAt {
			latest = r
		}
	}

	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return cloneRun(latest), nil
}

// cloneRun deep-copies a run so callers never share slices with the store.
func cloneRun(r *domain.AnalysisRun) *domain.AnalysisRun {
	c := *r
	if r.Best != nil {
		best := clonePerformance(*r.Best)
		c.Best = &best
	}
	if r.Results != nil {
		c.Results = make([]domain.PerformanceResult, len(r.Results))
		for i, pr := range r.Results {
			c.Results[i] = clonePerformance(pr)
		}
	}
	if r.Actual != nil {
		actual := *r.Actual
		actual.CumulativeProfit = copyFloats(r.Actual.CumulativeProfit)
		c.Actual = &actual
	}
	return &c
}

func clonePerformance(p domain.PerformanceResult) domain.PerformanceResult {
	p.CumulativeProfit = copyFloats(p.CumulativeProfit)
	return p
}

func copyFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

var _ storage.AnalysisRunStore = (*AnalysisRunStore)(nil)
