package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"

	"trade-grid-lab/internal/domain"
)

// All-markets and per-market entries live in separate namespaces,
// so no market name can map onto the all-markets key.
const (
	allMarketsKey   = "analysis:all"
	marketKeyPrefix = "analysis:market:"
)

// DefaultTTL bounds how long a cached run is served.
const DefaultTTL = 10 * time.Minute

// RedisCache is an AnalysisCache backed by Redis.
// Calls go through a circuit breaker so a dead Redis fails fast.
type RedisCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
}

// NewRedisCache wraps client. A non-positive ttl uses DefaultTTL.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client:  client,
		ttl:     ttl,
		breaker: newBreaker("redis-analysis-cache"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{Name: name}
	st.Interval = 60 * time.Second
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}
	// A miss is a normal answer, not a Redis failure.
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, redis.Nil)
	}
	return gobreaker.NewCircuitBreaker(st)
}

// Key returns the Redis key for a market filter.
func Key(market string) string {
	if market == "" {
		return allMarketsKey
	}
	return marketKeyPrefix + market
}

// Get returns the cached run for market.
func (c *RedisCache) Get(ctx context.Context, market string) (*domain.AnalysisRun, bool, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, Key(market)).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", Key(market), err)
	}

	var run domain.AnalysisRun
	if err := json.Unmarshal(out.([]byte), &run); err != nil {
		return nil, false, fmt.Errorf("decode cached run: %w", err)
	}
	return &run, true, nil
}

// Set stores run under market with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, market string, run *domain.AnalysisRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, Key(market), data, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", Key(market), err)
	}
	return nil
}

// Invalidate drops the entries for market and for all markets.
func (c *RedisCache) Invalidate(ctx context.Context, market string) error {
	keys := []string{Key(market)}
	if market != "" {
		keys = append(keys, Key(""))
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// State reports the breaker state, for health output.
func (c *RedisCache) State() string {
	return c.breaker.State().String()
}

var _ AnalysisCache = (*RedisCache)(nil)
