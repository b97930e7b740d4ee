// Package simulation classifies recorded trades under a candidate (stop-loss, target) pair.
package simulation

import (
	"errors"
	"fmt"

	"trade-grid-lab/internal/domain"
)

// ErrEntryNotZero is returned when a trade's entry is not normalized to 0.
// It signals corrupted upstream data and aborts the whole simulation.
var ErrEntryNotZero = errors.New("trade entry must be 0")

// ClassifyHypothetical returns the profit the trade would have realized under pair.
// Order of checks:
//  1. most_adverse <= entry + stop_loss -> stop_loss (stop wins ties)
//  2. unrealized_profit >= entry + target -> target
//  3. otherwise -> stop_loss (neither bound touched is booked as a full stop)
func ClassifyHypothetical(t *domain.TradeRecord, pair domain.CandidateParameters) (int, error) {
	if err := checkEntry(t); err != nil {
		return 0, err
	}

	switch {
	case t.MostAdverse <= t.Entry+pair.StopLoss:
		return pair.StopLoss, nil
	case t.UnrealizedProfit >= t.Entry+pair.Target:
		return pair.Target, nil
	default:
		return pair.StopLoss, nil
	}
}

// ClassifyActual returns the profit implied by the trade's own stop and exit.
func ClassifyActual(t *domain.TradeRecord) (int, error) {
	if err := checkEntry(t); err != nil {
		return 0, err
	}

	if t.MostAdverse <= t.Entry+t.StopLoss {
		return t.StopLoss, nil
	}
	return t.Exit, nil
}

// Simulate classifies every trade under pair.
// Both returned slices have len(trades) elements in input order.
// Any trade violating the entry precondition fails the whole call.
func Simulate(pair domain.CandidateParameters, trades []*domain.TradeRecord) (hypothetical, actual []int, err error) {
	hypothetical = make([]int, len(trades))
	actual = make([]int, len(trades))

	for i, t := range trades {
		h, err := ClassifyHypothetical(t, pair)
		if err != nil {
			return nil, nil, fmt.Errorf("trade %d (%s): %w", i, t.TradeID, err)
		}
		a, err := ClassifyActual(t)
		if err != nil {
			return nil, nil, fmt.Errorf("trade %d (%s): %w", i, t.TradeID, err)
		}
		hypothetical[i] = h
		actual[i] = a
	}

	return hypothetical, actual, nil
}

func checkEntry(t *domain.TradeRecord) error {
	if t.Entry != 0 {
		return fmt.Errorf("%w: got %d", ErrEntryNotZero, t.Entry)
	}
	return nil
}
