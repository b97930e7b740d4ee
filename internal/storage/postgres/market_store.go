package postgres

import (
	"context"
	"fmt"

	"trade-grid-lab/internal/domain"
	"trade-grid-lab/internal/storage"
)

// MarketStore implements storage.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *Pool
}

// NewMarketStore creates a new MarketStore.
func NewMarketStore(pool *Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MarketStore = (*MarketStore)(nil)

// Insert adds a new market. Returns ErrDuplicateKey if name exists.
func (s *MarketStore) Insert(ctx context.Context, m *domain.Market) error {
	if m == nil || m.Name == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO markets (name, created_at) VALUES ($1, $2)`,
		m.Name, m.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert market: %w", err)
	}
	return nil
}

// GetByName retrieves a market. Returns ErrNotFound if not exists.
func (s *MarketStore) GetByName(ctx context.Context, name string) (*domain.Market, error) {
	var m domain.Market
	err := s.pool.QueryRow(ctx,
		`SELECT name, created_at FROM markets WHERE name = $1`, name,
	).Scan(&m.Name, &m.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get market by name: %w", err)
	}
	return &m, nil
}

// GetAll retrieves all markets ordered by name.
func (s *MarketStore) GetAll(ctx context.Context) ([]*domain.Market, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, created_at FROM markets ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("get all markets: %w", err)
	}
	defer rows.Close()

	var markets []*domain.Market
	for rows.Next() {
		var m domain.Market
		if err := rows.Scan(&m.Name, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan market row: %w", err)
		}
		markets = append(markets, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market rows: %w", err)
	}
	return markets, nil
}
