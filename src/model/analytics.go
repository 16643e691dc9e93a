package model

// EquityPoint is one step of the cumulative P&L curve.
type EquityPoint struct {
	Index      int     `json:"index"`
	Cumulative float64 `json:"cumulative"`
	Pnl        float64 `json:"pnl"`
}

// DrawdownPoint is the decline from the running equity peak at one step.
// Drawdown is <= 0 by construction. Percent is relative to the peak and 0
// while the peak is still non-positive.
type DrawdownPoint struct {
	Index    int     `json:"index"`
	Drawdown float64 `json:"drawdown"`
	Percent  float64 `json:"percent"`
}

// Summary holds the per-run ratios shown next to the curves.
type Summary struct {
	TotalPnl       float64 `json:"total_pnl"`
	TotalTrades    int     `json:"total_trades"`
	WinRate        float64 `json:"win_rate"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	MaxWin         float64 `json:"max_win"`
	MaxLoss        float64 `json:"max_loss"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxWinStreak   int     `json:"max_win_streak"`
	MaxLossStreak  int     `json:"max_loss_streak"`
	Cagr           float64 `json:"cagr"`
	CarMdd         float64 `json:"car_mdd"`
	Expectancy     float64 `json:"expectancy"`
	RecoveryFactor float64 `json:"recovery_factor"`
}

// AnalyticsResult is derived from a TradeGroup slice and recomputed whole
// whenever the groups change; it is never mutated in place.
type AnalyticsResult struct {
	EquityPoints   []EquityPoint   `json:"equity_points"`
	DrawdownPoints []DrawdownPoint `json:"drawdown_points"`
	Summary        Summary         `json:"summary"`
}
