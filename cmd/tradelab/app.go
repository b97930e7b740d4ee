package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"trade-grid-lab/internal/cache"
	"trade-grid-lab/internal/config"
	"trade-grid-lab/internal/journal"
	"trade-grid-lab/internal/storage"
	chstore "trade-grid-lab/internal/storage/clickhouse"
	"trade-grid-lab/internal/storage/memory"
	pgstore "trade-grid-lab/internal/storage/postgres"
)

// stores holds the storage implementations used by the journal.
type stores struct {
	trades  storage.TradeStore
	markets storage.MarketStore
	runs    storage.AnalysisRunStore
}

// createStores builds in-memory stores, or Postgres for trades and markets
// plus ClickHouse for analysis runs.
func createStores(ctx context.Context, cfg config.StorageConfig) (*stores, func(), error) {
	if cfg.Backend == config.BackendMemory {
		s := &stores{
			trades:  memory.NewTradeStore(),
			markets: memory.NewMarketStore(),
			runs:    memory.NewAnalysisRunStore(),
		}
		return s, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	chConn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	s := &stores{
		trades:  pgstore.NewTradeStore(pool),
		markets: pgstore.NewMarketStore(pool),
		runs:    chstore.NewAnalysisRunStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return s, cleanup, nil
}

// createCache returns a Redis-backed cache when enabled, otherwise NopCache.
// An unreachable Redis is logged and left to the circuit breaker.
func (c *cli) createCache(ctx context.Context) (cache.AnalysisCache, func()) {
	if !c.cfg.Cache.Enabled {
		return cache.NopCache{}, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.cfg.Cache.RedisAddr,
		Password: c.cfg.Cache.Password,
		DB:       c.cfg.Cache.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		c.logger.Warn().Err(err).Str("addr", c.cfg.Cache.RedisAddr).Msg("redis unreachable, analysis cache degraded")
	}
	return cache.NewRedisCache(client, c.cfg.Cache.TTL), func() { _ = client.Close() }
}

// newJournal wires stores and cache into a journal service.
func (c *cli) newJournal(ctx context.Context) (*journal.Service, *stores, func(), error) {
	s, closeStores, err := createStores(ctx, c.cfg.Storage)
	if err != nil {
		return nil, nil, nil, err
	}
	analysisCache, closeCache := c.createCache(ctx)

	svc := journal.New(journal.Options{
		TradeStore:       s.trades,
		MarketStore:      s.markets,
		AnalysisRunStore: s.runs,
		Cache:            analysisCache,
		Logger:           &c.logger,
	})

	cleanup := func() {
		closeCache()
		closeStores()
	}
	return svc, s, cleanup, nil
}
