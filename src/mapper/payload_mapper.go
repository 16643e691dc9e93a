package mapper

import (
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"strategydesk/src/model"
	"strategydesk/src/strategy"
	"strategydesk/src/utils"
)

// WireOverlay is a per-leg risk rule on the wire. Disabled overlays are
// omitted from the leg record entirely, never sent as null or zero.
type WireOverlay struct {
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
	SecondValue float64 `json:"second_value,omitempty"`
}

// WireLeg is one leg of the engine request.
type WireLeg struct {
	Segment    string `json:"segment"` // OPT | FUT
	Position   string `json:"position"`
	Lots       int    `json:"lots"`
	OptionType string `json:"option_type,omitempty"` // CE | PE
	Expiry     string `json:"expiry"`

	StrikeSelection *model.StrikeDescriptor `json:"strike_selection,omitempty"`

	TargetProfit    *WireOverlay `json:"targetProfit,omitempty"`
	StopLoss        *WireOverlay `json:"stopLoss,omitempty"`
	TrailSL         *WireOverlay `json:"trailSL,omitempty"`
	ReEntryOnTarget *WireOverlay `json:"reEntryOnTarget,omitempty"`
	ReEntryOnSL     *WireOverlay `json:"reEntryOnSL,omitempty"`
	SimpleMomentum  *WireOverlay `json:"simpleMomentum,omitempty"`
}

// WireRequest is the body POSTed to the backtest engine. The top-level
// overall overlay fields use explicit null sentinels when disabled — the
// engine contract is asymmetric with the per-leg overlays, which are omitted.
type WireRequest struct {
	Index        string `json:"index"`
	Underlying   string `json:"underlying"`
	StrategyType string `json:"strategy_type"`
	ExpiryWindow string `json:"expiry_window"`
	EntryDTE     int    `json:"entry_dte"`
	ExitDTE      int    `json:"exit_dte"`
	DateFrom     string `json:"date_from"`
	DateTo       string `json:"date_to"`
	ExpiryType   string `json:"expiry_type"`

	OverallSLType      *string  `json:"overall_sl_type"`
	OverallSLValue     *float64 `json:"overall_sl_value"`
	OverallTargetType  *string  `json:"overall_target_type"`
	OverallTargetValue *float64 `json:"overall_target_value"`
	TrailOverallType   *string  `json:"trail_overall_type"`
	TrailOverallValue  *float64 `json:"trail_overall_value"`

	Legs []WireLeg `json:"legs"`
}

// BuildPayload serializes a validated strategy into the engine wire record.
// It does not run the validator — that is the caller's responsibility — but
// it refuses to emit a malformed request when handed a config that violates
// an invariant validation would have caught.
func BuildPayload(cfg *model.StrategyConfig) (*WireRequest, error) {
	if cfg == nil {
		return nil, fmt.Errorf("strategy config is nil")
	}
	if len(cfg.Legs) == 0 {
		return nil, fmt.Errorf("strategy %d has no legs; payload built before validation?", cfg.ID)
	}

	req := &WireRequest{
		Index:        cfg.Index,
		Underlying:   string(cfg.UnderlyingSource),
		StrategyType: string(cfg.StrategyType),
		ExpiryWindow: expiryWindow(cfg.ExpiryBasis),
		EntryDTE:     cfg.EntryDaysBeforeExpiry,
		ExitDTE:      cfg.ExitDaysBeforeExpiry,
		DateFrom:     utils.BacktestDate(cfg.DateFrom),
		DateTo:       utils.BacktestDate(cfg.DateTo),
		ExpiryType:   strings.ToUpper(string(cfg.ExpiryBasis)),
	}

	req.OverallSLType, req.OverallSLValue = overallSentinel(cfg.OverallStopLoss)
	req.OverallTargetType, req.OverallTargetValue = overallSentinel(cfg.OverallTarget)
	req.TrailOverallType, req.TrailOverallValue = overallSentinel(cfg.TrailingOverall)

	req.Legs = make([]WireLeg, 0, len(cfg.Legs))
	for i, leg := range cfg.Legs {
		wireLeg, err := buildLeg(leg)
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i+1, err)
		}
		req.Legs = append(req.Legs, wireLeg)
	}

	return req, nil
}

func buildLeg(leg model.Leg) (WireLeg, error) {
	out := WireLeg{
		Position: string(leg.Position),
		Lots:     leg.Lots,
		Expiry:   string(leg.Expiry),
	}

	switch leg.Instrument {
	case model.InstrumentOption:
		if leg.OptionType == "" || leg.Strike == nil {
			return WireLeg{}, fmt.Errorf("option leg without option type or strike selection")
		}
		out.Segment = "OPT"
		out.OptionType = wireOptionType(leg.OptionType)

		desc, err := strategy.ResolveStrike(leg.Strike, leg.OptionType)
		if err != nil {
			return WireLeg{}, fmt.Errorf("strike selection: %w", err)
		}
		out.StrikeSelection = &desc

	case model.InstrumentFuture:
		if leg.OptionType != "" || leg.Strike != nil {
			return WireLeg{}, fmt.Errorf("future leg carrying option fields")
		}
		out.Segment = "FUT"

	default:
		return WireLeg{}, fmt.Errorf("unknown instrument %q", leg.Instrument)
	}

	out.TargetProfit = wireOverlay("targetProfit", leg.TargetProfit)
	out.StopLoss = wireOverlay("stopLoss", leg.StopLoss)
	out.TrailSL = wireOverlay("trailSL", leg.TrailingStopLoss)
	out.ReEntryOnTarget = wireOverlay("reEntryOnTarget", leg.ReEntryOnTarget)
	out.ReEntryOnSL = wireOverlay("reEntryOnSL", leg.ReEntryOnStopLoss)
	out.SimpleMomentum = wireOverlay("simpleMomentum", leg.SimpleMomentumFilter)

	return out, nil
}

// wireOverlay coerces an overlay to its wire form. A missing, empty or
// non-numeric value means the overlay is disabled and stays off the wire.
func wireOverlay(name string, o *model.Overlay) *WireOverlay {
	if o == nil {
		return nil
	}
	value, ok := o.NumericValue()
	if !ok {
		logger.WithFields(map[string]interface{}{
			"overlay": name,
			"value":   o.Value,
		}).Debug("Overlay value empty or non-numeric, treating as disabled")
		return nil
	}
	out := &WireOverlay{Type: o.Type, Value: value}
	if second, ok := o.NumericSecondValue(); ok {
		out.SecondValue = second
	}
	return out
}

// overallSentinel maps a top-level overlay to the engine's explicit-null
// disabled convention.
func overallSentinel(o *model.Overlay) (*string, *float64) {
	value, ok := o.NumericValue()
	if !ok {
		return nil, nil
	}
	t := o.Type
	return &t, &value
}

func expiryWindow(basis model.ExpiryBasis) string {
	if basis == model.BasisMonthly {
		return "monthly_expiry"
	}
	return "weekly_expiry"
}

func wireOptionType(t model.OptionType) string {
	if t == model.OptionPut {
		return "PE"
	}
	return "CE"
}
