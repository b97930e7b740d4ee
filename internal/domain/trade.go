package domain

// TradeRecord represents one closed position's normalized outcome.
// Corresponds to the trades table. All price levels are relative to entry.
type TradeRecord struct {
	TradeID string `json:"trade_id"` // deterministic hash
	Name    string `json:"name"`     // free-form label entered with the trade
	Market  string `json:"market"`   // references markets.name

	// Levels (entry-relative points)
	Entry            int `json:"entry"`             // always 0 for persisted trades
	Exit             int `json:"exit"`              // recorded exit value, >= 0
	StopLoss         int `json:"stop_loss"`         // trade's own stop, < 0
	MostAdverse      int `json:"most_adverse"`      // worst unrealized value reached, <= 0
	UnrealizedProfit int `json:"unrealized_profit"` // peak unrealized value reached, >= 0

	// Metadata
	RecordedAt int64 `json:"recorded_at"` // unix ms, ordering key
}

// TradeInput carries the user-supplied fields of a new trade.
// Entry is not part of the input: it is always normalized to 0.
type TradeInput struct {
	Name             string `json:"name"`
	Market           string `json:"market"`
	Exit             int    `json:"exit"`
	StopLoss         int    `json:"stop_loss"`
	MostAdverse      int    `json:"most_adverse"`
	UnrealizedProfit int    `json:"unrealized_profit"`
}
