package idhash

import (
	"testing"

	"trade-grid-lab/internal/domain"
)

func input(name, market string, exit, stop, adverse, unrealized int) domain.TradeInput {
	return domain.TradeInput{
		Name: name, Market: market,
		Exit: exit, StopLoss: stop, MostAdverse: adverse, UnrealizedProfit: unrealized,
	}
}

func TestComputeTradeID_Deterministic(t *testing.T) {
	tests := []struct {
		name       string
		in         domain.TradeInput
		recordedAt int64
	}{
		{"winner", input("opening drive", "ES", 10, -6, -3, 12), 1704067234567},
		{"stopped out", input("fade", "NQ", 0, -8, -9, 2), 1704067300000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeID(tt.in, tt.recordedAt, "n1")
			if len(got) != 64 {
				t.Errorf("ComputeTradeID() length = %d, want 64", len(got))
			}
			if again := ComputeTradeID(tt.in, tt.recordedAt, "n1"); got != again {
				t.Errorf("ComputeTradeID() not deterministic: %s != %s", got, again)
			}
		})
	}
}

func TestComputeTradeID_Distinct(t *testing.T) {
	base := ComputeTradeID(input("a", "ES", 10, -6, -3, 12), 1000, "n1")

	variants := map[string]string{
		"name":        ComputeTradeID(input("b", "ES", 10, -6, -3, 12), 1000, "n1"),
		"market":      ComputeTradeID(input("a", "NQ", 10, -6, -3, 12), 1000, "n1"),
		"recorded_at": ComputeTradeID(input("a", "ES", 10, -6, -3, 12), 1001, "n1"),
		"exit":        ComputeTradeID(input("a", "ES", 11, -6, -3, 12), 1000, "n1"),
		"stop_loss":   ComputeTradeID(input("a", "ES", 10, -8, -3, 12), 1000, "n1"),
		"unrealized":  ComputeTradeID(input("a", "ES", 10, -6, -3, 13), 1000, "n1"),
	}

	for field, id := range variants {
		if id == base {
			t.Errorf("changing %s did not change the id", field)
		}
	}
}

func TestComputeTradeID_KnownValue(t *testing.T) {
	// SHA256("a|ES|1000|10|-6|-3|12|n1")
	want := "c568f21c76e60a827e084410d97c16cbe4fe364647cd79461d2b39197b4e3a12"
	if got := ComputeTradeID(input("a", "ES", 10, -6, -3, 12), 1000, "n1"); got != want {
		t.Errorf("ComputeTradeID() = %s, want %s", got, want)
	}
}

func TestComputeTradeID_NonceSeparatesRepeats(t *testing.T) {
	in := input("a", "ES", 10, -6, -3, 12)
	if ComputeTradeID(in, 1000, "n1") == ComputeTradeID(in, 1000, "n2") {
		t.Error("identical submissions with different nonces share an id")
	}
}
