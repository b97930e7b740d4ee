package memory

import (
	"context"
	"sort"
	"sync"

	"trade-grid-lab/internal/domain"
	"trade-grid-lab/internal/storage"
)

// MarketStore is an in-memory implementation of storage.MarketStore.
type MarketStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Market // keyed by name
}

// NewMarketStore creates a new in-memory market store.
func NewMarketStore() *MarketStore {
	return &MarketStore{
		data: make(map[string]*domain.Market),
	}
}

// Insert adds a new market. Returns ErrDuplicateKey if name exists.
func (s *MarketStore) Insert(_ context.Context, m *domain.Market) error {
	if m == nil || m.Name == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.Name]; exists {
		return storage.ErrDuplicateKey
	}

	marketCopy := *m
	s.data[m.Name] = &marketCopy
	return nil
}

// GetByName retrieves a market. Returns ErrNotFound if not exists.
func (s *MarketStore) GetByName(_ context.Context, name string) (*domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[name]
	if !exists {
		return nil, storage.ErrNotFound
	}

	marketCopy := *m
	return &marketCopy, nil
}

// GetAll retrieves all markets ordered by name ASC.
func (s *MarketStore) GetAll(_ context.Context) ([]*domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Market, 0, len(s.data))
	for _, m := range s.data {
		marketCopy := *m
		result = append(result, &marketCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

var _ storage.MarketStore = (*MarketStore)(nil)
