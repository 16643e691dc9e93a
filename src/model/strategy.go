package model

import (
	"strconv"
	"strings"
	"time"
)

// Instrument segment of a leg.
type Instrument string

const (
	InstrumentOption Instrument = "OPTION"
	InstrumentFuture Instrument = "FUTURE"
)

type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

type Position string

const (
	PositionBuy  Position = "BUY"
	PositionSell Position = "SELL"
)

// LegExpiry selects which contract a leg trades relative to the run date.
// Future legs are restricted to the monthly variants.
type LegExpiry string

const (
	ExpiryWeekly      LegExpiry = "weekly"
	ExpiryNextWeekly  LegExpiry = "next_weekly"
	ExpiryMonthly     LegExpiry = "monthly"
	ExpiryNextMonthly LegExpiry = "next_monthly"
)

// IsWeekly reports whether the leg expiry is one of the weekly variants.
func (e LegExpiry) IsWeekly() bool {
	return e == ExpiryWeekly || e == ExpiryNextWeekly
}

type ExpiryBasis string

const (
	BasisWeekly  ExpiryBasis = "WEEKLY"
	BasisMonthly ExpiryBasis = "MONTHLY"
)

type UnderlyingSource string

const (
	UnderlyingCash    UnderlyingSource = "cash"
	UnderlyingFutures UnderlyingSource = "futures"
)

type StrategyType string

const (
	StrategyIntraday   StrategyType = "intraday"
	StrategyBTST       StrategyType = "btst"
	StrategyPositional StrategyType = "positional"
)

// Overlay is a risk rule attached to a leg or to the whole strategy.
// Presence (non-nil pointer) means enabled. Value arrives as text from the
// editing surface; an empty or non-numeric value means the overlay is
// effectively disabled, never zero.
type Overlay struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	// SecondValue carries the trail amount for trailing overlays and the
	// re-entry count cap for re-entry overlays. Unused otherwise.
	SecondValue string `json:"second_value,omitempty"`
}

// NumericValue coerces the overlay value. ok is false when the overlay
// should be treated as disabled (empty or unparsable text).
func (o *Overlay) NumericValue() (float64, bool) {
	if o == nil {
		return 0, false
	}
	return parseOverlayNumber(o.Value)
}

// NumericSecondValue coerces the secondary parameter the same way.
func (o *Overlay) NumericSecondValue() (float64, bool) {
	if o == nil {
		return 0, false
	}
	return parseOverlayNumber(o.SecondValue)
}

func parseOverlayNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Leg is one tradable component of a multi-leg strategy.
type Leg struct {
	Instrument Instrument `json:"instrument"`
	OptionType OptionType `json:"option_type,omitempty"`
	Position   Position   `json:"position"`
	Lots       int        `json:"lots"`
	Expiry     LegExpiry  `json:"expiry"`

	// Strike is required for option legs and must be absent for future legs.
	Strike *StrikeSelection `json:"strike_selection,omitempty"`

	TargetProfit         *Overlay `json:"target_profit,omitempty"`
	StopLoss             *Overlay `json:"stop_loss,omitempty"`
	TrailingStopLoss     *Overlay `json:"trailing_stop_loss,omitempty"`
	ReEntryOnTarget      *Overlay `json:"re_entry_on_target,omitempty"`
	ReEntryOnStopLoss    *Overlay `json:"re_entry_on_stop_loss,omitempty"`
	SimpleMomentumFilter *Overlay `json:"simple_momentum,omitempty"`
}

// StrategyConfig is the canonical in-memory and persisted representation of
// a strategy: ordered legs plus the global settings that shape one backtest
// request. A config is owned by the editing session that created it and is
// treated as immutable once handed to the payload builder.
type StrategyConfig struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"index" json:"user_id"`
	Name   string `gorm:"size:255" json:"name"`

	Index            string           `gorm:"size:30;not null" json:"index"`
	UnderlyingSource UnderlyingSource `gorm:"size:20;not null;default:cash" json:"underlying_source"`
	StrategyType     StrategyType     `gorm:"size:20;not null;default:intraday" json:"strategy_type"`
	ExpiryBasis      ExpiryBasis      `gorm:"size:10;not null;default:WEEKLY" json:"expiry_basis"`

	EntryDaysBeforeExpiry int `gorm:"not null;default:0" json:"entry_days_before_expiry"`
	ExitDaysBeforeExpiry  int `gorm:"not null;default:0" json:"exit_days_before_expiry"`

	Legs []Leg `gorm:"serializer:json" json:"legs"`

	OverallStopLoss *Overlay `gorm:"serializer:json" json:"overall_stop_loss,omitempty"`
	OverallTarget   *Overlay `gorm:"serializer:json" json:"overall_target,omitempty"`
	TrailingOverall *Overlay `gorm:"serializer:json" json:"trailing_overall,omitempty"`

	DateFrom time.Time `gorm:"not null" json:"date_from"`
	DateTo   time.Time `gorm:"not null" json:"date_to"`

	// AutoRefresh marks the strategy for the scheduled re-backtest loop.
	AutoRefresh bool `gorm:"not null;default:false" json:"auto_refresh"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
}

// TableName keeps the exact table name under our control.
func (StrategyConfig) TableName() string {
	return "strategies"
}

// MaxDTEForBasis returns the inclusive upper bound for entry/exit days
// before expiry under the given basis.
func MaxDTEForBasis(basis ExpiryBasis) int {
	if basis == BasisMonthly {
		return 24
	}
	return 4
}
