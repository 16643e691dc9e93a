package model

// TradeRecord is the canonical shape of one leg-outcome row returned by the
// backtest engine. The engine owns these rows; field-name differences across
// engine versions are absorbed once, in the response mapper — nothing past
// that boundary guesses at field names.
type TradeRecord struct {
	TradeNumber     int     `json:"trade_number"`
	EntryDate       string  `json:"entry_date"`
	ExitDate        string  `json:"exit_date"`
	EntryUnderlying float64 `json:"entry_underlying"`
	ExitUnderlying  float64 `json:"exit_underlying"`
	LegType         string  `json:"leg_type"` // CE / PE / FUT
	Strike          float64 `json:"strike"`
	Side            string  `json:"side"`
	Quantity        int     `json:"quantity"`
	EntryPrice      float64 `json:"entry_price"`
	ExitPrice       float64 `json:"exit_price"`
	NetPnl          float64 `json:"net_pnl"`
	CumulativePnl   float64 `json:"cumulative_pnl"`
	Drawdown        float64 `json:"drawdown"`
}

// TradeGroup collects every leg row of one trade. Trade-level fields are
// copied from the first member; TotalPnl is the sum of member net P&L.
type TradeGroup struct {
	TradeNumber     int           `json:"trade_number"`
	EntryDate       string        `json:"entry_date"`
	ExitDate        string        `json:"exit_date"`
	EntryUnderlying float64       `json:"entry_underlying"`
	ExitUnderlying  float64       `json:"exit_underlying"`
	Legs            []TradeRecord `json:"legs"`
	TotalPnl        float64       `json:"total_pnl"`
}
