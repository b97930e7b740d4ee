// Package idhash derives content-addressed identifiers for journal records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"trade-grid-lab/internal/domain"
)

const sep = "|"

// ComputeTradeID returns the hex SHA256 of
// name|market|recorded_at|exit|stop_loss|most_adverse|unrealized_profit|nonce.
// The nonce keeps repeated identical submissions in the same millisecond
// apart; callers pass a fresh random value per trade.
func ComputeTradeID(in domain.TradeInput, recordedAt int64, nonce string) string {
	parts := []string{
		in.Name,
		in.Market,
		strconv.FormatInt(recordedAt, 10),
		strconv.Itoa(in.Exit),
		strconv.Itoa(in.StopLoss),
		strconv.Itoa(in.MostAdverse),
		strconv.Itoa(in.UnrealizedProfit),
		nonce,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, sep)))
	return hex.EncodeToString(sum[:])
}
