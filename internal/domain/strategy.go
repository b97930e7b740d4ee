package domain

import "fmt"

// CandidateParameters is one (stop-loss, target) pair of the evaluation grid.
type CandidateParameters struct {
	StopLoss int // < 0
	Target   int // > 0
}

// String returns the pair as "SL/TP", e.g. "-6/10".
func (p CandidateParameters) String() string {
	return fmt.Sprintf("%d/%d", p.StopLoss, p.Target)
}

// Grid enumerates candidate pairs: outer loop over StopLosses, inner over Targets.
type Grid struct {
	StopLosses []int
	Targets    []int
}

// DefaultGrid is the fixed evaluation grid.
var DefaultGrid = Grid{
	StopLosses: []int{-6, -8, -12},
	Targets:    []int{10, 16, 20},
}

// Pairs returns all pairs in enumeration order.
func (g Grid) Pairs() []CandidateParameters {
	pairs := make([]CandidateParameters, 0, len(g.StopLosses)*len(g.Targets))
	for _, sl := range g.StopLosses {
		for _, tp := range g.Targets {
			pairs = append(pairs, CandidateParameters{StopLoss: sl, Target: tp})
		}
	}
	return pairs
}

// Validate checks that the grid is non-empty with negative stops and positive targets.
func (g Grid) Validate() error {
	if len(g.StopLosses) == 0 || len(g.Targets) == 0 {
		return fmt.Errorf("grid must have at least one stop-loss and one target")
	}
	for _, sl := range g.StopLosses {
		if sl >= 0 {
			return fmt.Errorf("grid stop-loss %d must be negative", sl)
		}
	}
	for _, tp := range g.Targets {
		if tp <= 0 {
			return fmt.Errorf("grid target %d must be positive", tp)
		}
	}
	return nil
}
