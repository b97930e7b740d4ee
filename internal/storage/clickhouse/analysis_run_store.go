package clickhouse

import (
	"context"
	"fmt"

	"trade-grid-lab/internal/domain"
	"trade-grid-lab/internal/storage"
)

const (
	kindHypothetical = "hypothetical"
	kindActual       = "actual"
)

// AnalysisRunStore implements storage.AnalysisRunStore using ClickHouse.
// A run is stored as one row per evaluated pair plus one actual row.
type AnalysisRunStore struct {
	conn *Conn
}

// NewAnalysisRunStore creates a new AnalysisRunStore.
func NewAnalysisRunStore(conn *Conn) *AnalysisRunStore {
	return &AnalysisRunStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AnalysisRunStore = (*AnalysisRunStore)(nil)

// resultRow mirrors one analysis_results row with driver-exact column types.
type resultRow struct {
	RunID            string
	Market           string
	CreatedAt        int64
	TradeCount       uint32
	Kind             string
	PairIndex        uint16
	StopLoss         int32
	Target           int32
	TotalTrades      uint32
	Wins             uint32
	Losses           uint32
	TotalProfit      float64
	WinRate          float64
	ProfitFactor     float64
	MaxDrawdown      float64
	CumulativeProfit []float64
	IsBest           uint8
}

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *AnalysisRunStore) Insert(ctx context.Context, r *domain.AnalysisRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	// ReplacingMergeTree would silently replace, but runs are append-only.
	exists, err := s.exists(ctx, r.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO analysis_results (
			run_id, market, created_at, trade_count,
			kind, pair_index, stop_loss, target,
			total_trades, wins, losses,
			total_profit, win_rate, profit_factor, max_drawdown,
			cumulative_profit, is_best
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, row := range toRows(r) {
		err = batch.Append(
			row.RunID, row.Market, row.CreatedAt, row.TradeCount,
			row.Kind, row.PairIndex, row.StopLoss, row.Target,
			row.TotalTrades, row.Wins, row.Losses,
			row.TotalProfit, row.WinRate, row.ProfitFactor, row.MaxDrawdown,
			row.CumulativeProfit, row.IsBest,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run. Returns ErrNotFound if not exists.
func (s *AnalysisRunStore) GetByRunID(ctx context.Context, runID string) (*domain.AnalysisRun, error) {
	query := `
		SELECT
			run_id, market, created_at, trade_count,
			kind, pair_index, stop_loss, target,
			total_trades, wins, losses,
			total_profit, win_rate, profit_factor, max_drawdown,
			cumulative_profit, is_best
		FROM analysis_results FINAL
		WHERE run_id = ?
		ORDER BY kind ASC, pair_index ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	var resultRows []resultRow
	for rows.Next() {
		var row resultRow
		err := rows.Scan(
			&row.RunID, &row.Market, &row.CreatedAt, &row.TradeCount,
			&row.Kind, &row.PairIndex, &row.StopLoss, &row.Target,
			&row.TotalTrades, &row.Wins, &row.Losses,
			&row.TotalProfit, &row.WinRate, &row.ProfitFactor, &row.MaxDrawdown,
			&row.CumulativeProfit, &row.IsBest,
		)
		if err != nil {
			return nil, fmt.Errorf("scan analysis row: %w", err)
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis rows: %w", err)
	}

	if len(resultRows) == 0 {
		return nil, storage.ErrNotFound
	}
	return fromRows(resultRows), nil
}

// GetLatest retrieves the most recent run for a market filter.
func (s *AnalysisRunStore) GetLatest(ctx context.Context, market string) (*domain.AnalysisRun, error) {
	query := `
		SELECT run_id
		FROM analysis_results FINAL
		WHERE market = ? AND kind = ?
		ORDER BY created_at DESC, run_id DESC
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, market, kindActual)
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate latest run: %w", err)
		}
		return nil, storage.ErrNotFound
	}

	var runID string
	if err := rows.Scan(&runID); err != nil {
		return nil, fmt.Errorf("scan latest run: %w", err)
	}
	rows.Close()

	return s.GetByRunID(ctx, runID)
}

// exists checks if any row with the given run_id exists.
func (s *AnalysisRunStore) exists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM analysis_results FINAL WHERE run_id = ?`, runID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// toRows flattens a run into its table rows.
func toRows(r *domain.AnalysisRun) []resultRow {
	base := resultRow{
		RunID:      r.RunID,
		Market:     r.Market,
		CreatedAt:  r.CreatedAt,
		TradeCount: uint32(r.TradeCount),
	}

	rows := make([]resultRow, 0, len(r.Results)+1)
	for i, pr := range r.Results {
		row := base
		row.Kind = kindHypothetical
		row.PairIndex = uint16(i)
		row.StopLoss = int32(pr.StopLoss)
		row.Target = int32(pr.Target)
		row.TotalTrades = uint32(pr.TotalTrades)
		row.Wins = uint32(pr.Wins)
		row.Losses = uint32(pr.Losses)
		row.TotalProfit = pr.TotalProfit
		row.WinRate = pr.WinRate
		row.ProfitFactor = float64(pr.ProfitFactor)
		row.MaxDrawdown = pr.MaxDrawdown
		row.CumulativeProfit = nonNil(pr.CumulativeProfit)
		if r.Best != nil && pr.Parameters() == r.Best.Parameters() {
			row.IsBest = 1
		}
		rows = append(rows, row)
	}

	if r.Actual != nil {
		row := base
		row.Kind = kindActual
		row.TotalTrades = uint32(r.Actual.TotalTrades)
		row.Wins = uint32(r.Actual.Wins)
		row.Losses = uint32(r.Actual.Losses)
		row.TotalProfit = r.Actual.TotalProfit
		row.WinRate = r.Actual.WinRate
		row.ProfitFactor = float64(r.Actual.ProfitFactor)
		row.MaxDrawdown = r.Actual.MaxDrawdown
		row.CumulativeProfit = nonNil(r.Actual.CumulativeProfit)
		rows = append(rows, row)
	}

	return rows
}

// fromRows rebuilds a run. Rows must be ordered by kind, pair_index.
func fromRows(rows []resultRow) *domain.AnalysisRun {
	first := rows[0]
	run := &domain.AnalysisRun{
		RunID:      first.RunID,
		Market:     first.Market,
		CreatedAt:  first.CreatedAt,
		TradeCount: int(first.TradeCount),
	}

	for _, row := range rows {
		switch row.Kind {
		case kindActual:
			run.Actual = &domain.ActualPerformance{
				TotalTrades:      int(row.TotalTrades),
				Wins:             int(row.Wins),
				Losses:           int(row.Losses),
				TotalProfit:      row.TotalProfit,
				WinRate:          row.WinRate,
				ProfitFactor:     domain.Ratio(row.ProfitFactor),
				MaxDrawdown:      row.MaxDrawdown,
				CumulativeProfit: row.CumulativeProfit,
			}
		case kindHypothetical:
			pr := domain.PerformanceResult{
				StopLoss:         int(row.StopLoss),
				Target:           int(row.Target),
				TotalTrades:      int(row.TotalTrades),
				Wins:             int(row.Wins),
				Losses:           int(row.Losses),
				TotalProfit:      row.TotalProfit,
				WinRate:          row.WinRate,
				ProfitFactor:     domain.Ratio(row.ProfitFactor),
				MaxDrawdown:      row.MaxDrawdown,
				CumulativeProfit: row.CumulativeProfit,
			}
			run.Results = append(run.Results, pr)
			if row.IsBest == 1 {
				best := pr
				run.Best = &best
			}
		}
	}

	return run
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
