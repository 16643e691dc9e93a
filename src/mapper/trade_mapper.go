package mapper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"

	"strategydesk/src/model"
)

// Engine responses have drifted field names across versions ("Net P&L",
// "net_pnl", "pnl", ...). This adapter is the single place the aliases are
// known; everything downstream sees only the canonical TradeRecord.

var tradeFieldAliases = map[string][]string{
	"trade_number":     {"trade_number", "trade", "trade_no", "Trade #"},
	"entry_date":       {"entry_date", "Entry Date", "date_in"},
	"exit_date":        {"exit_date", "Exit Date", "date_out"},
	"entry_underlying": {"entry_underlying", "underlying_entry", "Entry Spot"},
	"exit_underlying":  {"exit_underlying", "underlying_exit", "Exit Spot"},
	"leg_type":         {"leg_type", "instrument_type", "Type"},
	"strike":           {"strike", "Strike"},
	"side":             {"side", "position", "Side"},
	"quantity":         {"quantity", "qty", "Qty"},
	"entry_price":      {"entry_price", "price_in", "Entry Price"},
	"exit_price":       {"exit_price", "price_out", "Exit Price"},
	"net_pnl":          {"net_pnl", "netPnl", "pnl", "Net P&L"},
	"cumulative_pnl":   {"cumulative_pnl", "cum_pnl", "Cumulative P&L"},
	"drawdown":         {"drawdown", "Drawdown"},
}

// MapEngineTrades converts raw engine rows into canonical records. A row
// with a missing or zero trade number is assigned trade 1 rather than being
// dropped; the engine's numbering starts at 1 and legacy rows omit it.
func MapEngineTrades(rows []map[string]interface{}) []model.TradeRecord {
	out := make([]model.TradeRecord, 0, len(rows))

	for i, row := range rows {
		rec := model.TradeRecord{
			TradeNumber:     int(rowFloat(row, "trade_number")),
			EntryDate:       rowString(row, "entry_date"),
			ExitDate:        rowString(row, "exit_date"),
			EntryUnderlying: rowFloat(row, "entry_underlying"),
			ExitUnderlying:  rowFloat(row, "exit_underlying"),
			LegType:         rowString(row, "leg_type"),
			Strike:          rowFloat(row, "strike"),
			Side:            rowString(row, "side"),
			Quantity:        int(rowFloat(row, "quantity")),
			EntryPrice:      rowFloat(row, "entry_price"),
			ExitPrice:       rowFloat(row, "exit_price"),
			NetPnl:          rowFloat(row, "net_pnl"),
			CumulativePnl:   rowFloat(row, "cumulative_pnl"),
			Drawdown:        rowFloat(row, "drawdown"),
		}

		if rec.TradeNumber <= 0 {
			logger.WithField("row", i).Debug("Trade row without trade number, assigning trade 1")
			rec.TradeNumber = 1
		}

		out = append(out, rec)
	}

	return out
}

// EngineSummary holds the engine's own pre-computed ratios. Nil fields were
// absent from the response; present values win over locally recomputed ones.
type EngineSummary struct {
	TotalPnl       *float64
	WinRate        *float64
	AvgWin         *float64
	AvgLoss        *float64
	MaxWin         *float64
	MaxLoss        *float64
	MaxDrawdown    *float64
	MaxWinStreak   *float64
	MaxLossStreak  *float64
	Cagr           *float64
	CarMdd         *float64
	Expectancy     *float64
	RecoveryFactor *float64
}

var summaryFieldAliases = map[string][]string{
	"total_pnl":       {"total_pnl", "Total P&L", "net_profit"},
	"win_rate":        {"win_rate", "Win Rate (%)", "Win %"},
	"avg_win":         {"avg_win", "Avg Win"},
	"avg_loss":        {"avg_loss", "Avg Loss"},
	"max_win":         {"max_win", "Max Win"},
	"max_loss":        {"max_loss", "Max Loss"},
	"max_drawdown":    {"max_drawdown", "Max Drawdown"},
	"max_win_streak":  {"max_win_streak", "Max Win Streak"},
	"max_loss_streak": {"max_loss_streak", "Max Loss Streak"},
	"cagr":            {"cagr", "CAGR (%)", "CAGR"},
	"car_mdd":         {"car_mdd", "CAR/MDD"},
	"expectancy":      {"expectancy", "Expectancy"},
	"recovery_factor": {"recovery_factor", "Recovery Factor"},
}

// MapEngineSummary extracts the known ratios from the engine's flat summary
// record. Unknown keys are ignored, absent keys stay nil.
func MapEngineSummary(raw map[string]interface{}) EngineSummary {
	pick := func(canonical string) *float64 {
		for _, alias := range summaryFieldAliases[canonical] {
			if v, ok := raw[alias]; ok {
				f, numeric := coerceFloat(v)
				if numeric {
					return &f
				}
			}
		}
		return nil
	}

	return EngineSummary{
		TotalPnl:       pick("total_pnl"),
		WinRate:        pick("win_rate"),
		AvgWin:         pick("avg_win"),
		AvgLoss:        pick("avg_loss"),
		MaxWin:         pick("max_win"),
		MaxLoss:        pick("max_loss"),
		MaxDrawdown:    pick("max_drawdown"),
		MaxWinStreak:   pick("max_win_streak"),
		MaxLossStreak:  pick("max_loss_streak"),
		Cagr:           pick("cagr"),
		CarMdd:         pick("car_mdd"),
		Expectancy:     pick("expectancy"),
		RecoveryFactor: pick("recovery_factor"),
	}
}

// RenderFailureDetail turns an engine failure `detail` payload into a single
// user-facing message. The engine sends either a plain string or an array of
// {loc, msg} field violations.
func RenderFailureDetail(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "backtest engine rejected the request"
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var asFields []struct {
		Loc []interface{} `json:"loc"`
		Msg string        `json:"msg"`
	}
	if err := json.Unmarshal(raw, &asFields); err == nil && len(asFields) > 0 {
		parts := make([]string, 0, len(asFields))
		for _, f := range asFields {
			loc := make([]string, 0, len(f.Loc))
			for _, l := range f.Loc {
				loc = append(loc, fmt.Sprintf("%v", l))
			}
			if len(loc) > 0 {
				parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(loc, "."), f.Msg))
			} else {
				parts = append(parts, f.Msg)
			}
		}
		return strings.Join(parts, "; ")
	}

	return string(raw)
}

func rowFloat(row map[string]interface{}, canonical string) float64 {
	for _, alias := range tradeFieldAliases[canonical] {
		if v, ok := row[alias]; ok {
			if f, numeric := coerceFloat(v); numeric {
				return f
			}
		}
	}
	return 0
}

func rowString(row map[string]interface{}, canonical string) string {
	for _, alias := range tradeFieldAliases[canonical] {
		if v, ok := row[alias]; ok {
			switch t := v.(type) {
			case string:
				return t
			case fmt.Stringer:
				return t.String()
			}
		}
	}
	return ""
}

func coerceFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
