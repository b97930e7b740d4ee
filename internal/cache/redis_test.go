package cache

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/sony/gobreaker"

	"trade-grid-lab/internal/domain"
)

func testRun() *domain.AnalysisRun {
	best := domain.PerformanceResult{StopLoss: -6, Target: 10, TotalTrades: 1, Wins: 1, TotalProfit: 10, WinRate: 100, ProfitFactor: domain.Ratio(math.Inf(1)), CumulativeProfit: []float64{10}}
	return &domain.AnalysisRun{
		RunID:      "run-1",
		Market:     "ES",
		TradeCount: 1,
		CreatedAt:  1000,
		Best:       &best,
		Results:    []domain.PerformanceResult{best},
		Actual:     &domain.ActualPerformance{TotalTrades: 1, Wins: 1, TotalProfit: 10, WinRate: 100, ProfitFactor: domain.Ratio(math.Inf(1)), CumulativeProfit: []float64{10}},
	}
}

func TestKey(t *testing.T) {
	if got := Key("ES"); got != "analysis:market:ES" {
		t.Errorf("Key(ES) = %s", got)
	}
	if got := Key(""); got != "analysis:all" {
		t.Errorf("Key(\"\") = %s", got)
	}
	// Market names must never alias the all-markets entry.
	for _, name := range []string{"_all", "all", "market:"} {
		if Key(name) == Key("") {
			t.Errorf("market %q shares the all-markets key %s", name, Key(""))
		}
	}
}

func TestRedisCache_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db, time.Minute)
	ctx := context.Background()

	t.Run("cache hit returns run", func(t *testing.T) {
		data, _ := json.Marshal(testRun())
		mock.ExpectGet("analysis:market:ES").SetVal(string(data))

		run, found, err := cache.Get(ctx, "ES")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !found {
			t.Fatal("Expected cache hit")
		}
		if run.RunID != "run-1" || !run.Best.ProfitFactor.IsInf() {
			t.Errorf("unexpected run: %+v", run)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Redis expectations not met: %v", err)
		}
	})

	t.Run("cache miss returns not found", func(t *testing.T) {
		mock.ExpectGet("analysis:all").RedisNil()

		run, found, err := cache.Get(ctx, "")
		if err != nil {
			t.Fatalf("Get should not return error on cache miss: %v", err)
		}
		if found || run != nil {
			t.Error("Expected cache miss")
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Redis expectations not met: %v", err)
		}
	})

	t.Run("redis error returns error", func(t *testing.T) {
		mock.ExpectGet("analysis:market:NQ").SetErr(redis.TxFailedErr)

		if _, _, err := cache.Get(ctx, "NQ"); err == nil {
			t.Error("Expected error when Redis fails")
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Redis expectations not met: %v", err)
		}
	})
}

func TestRedisCache_Set(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db, time.Minute)
	ctx := context.Background()

	run := testRun()
	data, _ := json.Marshal(run)
	mock.ExpectSet("analysis:market:ES", data, time.Minute).SetVal("OK")

	if err := cache.Set(ctx, "ES", run); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Redis expectations not met: %v", err)
	}
}

func TestRedisCache_Invalidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db, 0)
	ctx := context.Background()

	mock.ExpectDel("analysis:market:ES", "analysis:all").SetVal(2)
	if err := cache.Invalidate(ctx, "ES"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	mock.ExpectDel("analysis:all").SetVal(1)
	if err := cache.Invalidate(ctx, ""); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	// A market literally named "_all" drops its own entry and the all-markets one.
	mock.ExpectDel("analysis:market:_all", "analysis:all").SetVal(2)
	if err := cache.Invalidate(ctx, "_all"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Redis expectations not met: %v", err)
	}
}

func TestRedisCache_BreakerOpens(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mock.ExpectGet("analysis:market:ES").SetErr(redis.TxFailedErr)
		if _, _, err := cache.Get(ctx, "ES"); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	// Breaker is open now: Redis must not be called.
	_, _, err := cache.Get(ctx, "ES")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected open-state error, got %v", err)
	}
	if cache.State() != "open" {
		t.Errorf("breaker state = %s, want open", cache.State())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Redis expectations not met: %v", err)
	}
}

func TestRedisCache_MissDoesNotTrip(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mock.ExpectGet("analysis:market:ES").RedisNil()
		if _, found, err := cache.Get(ctx, "ES"); err != nil || found {
			t.Fatalf("call %d: found=%v err=%v", i, found, err)
		}
	}
	if cache.State() != "closed" {
		t.Errorf("breaker state = %s, want closed", cache.State())
	}
}

func TestNopCache(t *testing.T) {
	var c AnalysisCache = NopCache{}
	ctx := context.Background()

	if err := c.Set(ctx, "ES", testRun()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, found, err := c.Get(ctx, "ES"); err != nil || found {
		t.Errorf("NopCache Get: found=%v err=%v", found, err)
	}
	if err := c.Invalidate(ctx, "ES"); err != nil {
		t.Errorf("Invalidate failed: %v", err)
	}
}
