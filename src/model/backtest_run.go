package model

import "time"

const (
	RunStatusPending   = "pending"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

// BacktestRun persists one round trip to the backtest engine: the wire
// request we sent, the engine's summary, and the analytics we derived from
// its trades. Failed and cancelled runs are kept for auditing.
type BacktestRun struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	StrategyID uint   `gorm:"index" json:"strategy_id"`
	UserID     uint   `gorm:"index" json:"user_id"`
	RequestID  string `gorm:"size:60;index" json:"request_id"`

	Status string `gorm:"size:20;not null;default:pending" json:"status"`

	RequestJSON   string `gorm:"type:jsonb" json:"request_json,omitempty"`
	SummaryJSON   string `gorm:"type:jsonb" json:"summary_json,omitempty"`
	AnalyticsJSON string `gorm:"type:jsonb" json:"analytics_json,omitempty"`

	TradeCount   int     `json:"trade_count"`
	TotalPnl     float64 `json:"total_pnl"`
	ErrorMessage string  `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (BacktestRun) TableName() string {
	return "backtest_runs"
}
