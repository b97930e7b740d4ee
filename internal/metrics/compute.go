package metrics

import "math"

// Summary holds single-pass reductions over a profit sequence.
type Summary struct {
	TotalTrades int
	Wins        int // profit > 0
	Losses      int // profit < 0

	TotalProfit  float64
	WinRate      float64 // percentage 0-100
	ProfitFactor float64 // +Inf when there are no losses
	MaxDrawdown  float64

	CumulativeProfit []float64
}

// Summarize reduces profits, in input order, into a Summary.
// Zero trades yields a win rate of 0 and a profit factor of +Inf.
func Summarize(profits []int) Summary {
	n := len(profits)
	s := Summary{
		TotalTrades:      n,
		CumulativeProfit: make([]float64, n),
	}

	grossProfit := 0.0
	grossLoss := 0.0 // sum of negative elements, <= 0
	for i, p := range profits {
		v := float64(p)
		s.TotalProfit += v
		s.CumulativeProfit[i] = s.TotalProfit

		switch {
		case p > 0:
			s.Wins++
			grossProfit += v
		case p < 0:
			s.Losses++
			grossLoss += v
		}
	}

	s.WinRate = computeWinRate(s.Wins, n)
	s.ProfitFactor = computeProfitFactor(grossProfit, grossLoss, s.Losses)
	s.MaxDrawdown = computeMaxDrawdown(s.CumulativeProfit)

	return s
}

// computeWinRate calculates wins / total as a percentage.
// 0/0 is defined as 0 rather than NaN.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}

// computeProfitFactor calculates gross profit / |gross loss|.
func computeProfitFactor(grossProfit, grossLoss float64, losses int) float64 {
	if losses == 0 {
		return math.Inf(1)
	}
	return grossProfit / math.Abs(grossLoss)
}

// computeMaxDrawdown calculates worst peak-to-trough on a cumulative curve.
// The curve starts from an implicit 0 before the first trade.
func computeMaxDrawdown(cumulative []float64) float64 {
	peak := 0.0
	maxDrawdown := 0.0

	for _, c := range cumulative {
		if c > peak {
			peak = c
		}
		if drawdown := peak - c; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}
