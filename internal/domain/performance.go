package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Ratio is a float64 that may be +Inf.
// JSON has no infinity literal, so +Inf is encoded as the string "Infinity".
type Ratio float64

// IsInf reports whether r is +Inf.
func (r Ratio) IsInf() bool {
	return math.IsInf(float64(r), 1)
}

// MarshalJSON implements json.Marshaler.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.IsInf() {
		return []byte(`"Infinity"`), nil
	}
	return json.Marshal(float64(r))
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == `"Infinity"` {
		*r = Ratio(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode ratio: %w", err)
	}
	*r = Ratio(f)
	return nil
}

// PerformanceResult is the aggregate of hypothetical profits for one candidate pair.
type PerformanceResult struct {
	StopLoss int `json:"stop_loss"`
	Target   int `json:"target"`

	// Counts
	TotalTrades int `json:"total_trades"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`

	// Metrics
	TotalProfit  float64 `json:"total_profit"`
	WinRate      float64 `json:"winrate"` // percentage 0-100
	ProfitFactor Ratio   `json:"profit_factor"`
	MaxDrawdown  float64 `json:"max_drawdown"`

	// Cumulative profit after each trade, in input order
	CumulativeProfit []float64 `json:"cumulative_profit"`
}

// Parameters returns the candidate pair this result was computed for.
func (r PerformanceResult) Parameters() CandidateParameters {
	return CandidateParameters{StopLoss: r.StopLoss, Target: r.Target}
}

// ActualPerformance is the aggregate of the trades' own recorded outcomes.
type ActualPerformance struct {
	TotalTrades int `json:"total_trades"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`

	TotalProfit  float64 `json:"total_profit"`
	WinRate      float64 `json:"winrate"`
	ProfitFactor Ratio   `json:"profit_factor"`
	MaxDrawdown  float64 `json:"max_drawdown"`

	CumulativeProfit []float64 `json:"cumulative_profit"`
}

// AnalysisRun is one persisted analysis call.
type AnalysisRun struct {
	RunID      string              `json:"run_id"`
	Market     string              `json:"market"` // empty = all markets
	TradeCount int                 `json:"trade_count"`
	CreatedAt  int64               `json:"created_at"` // unix ms
	Best       *PerformanceResult  `json:"best"`
	Results    []PerformanceResult `json:"results"`
	Actual     *ActualPerformance  `json:"actual"`
}
