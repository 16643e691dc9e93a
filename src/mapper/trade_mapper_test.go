package mapper

import (
	"encoding/json"
	"testing"
)

func TestMapEngineTrades_CanonicalAndAliasedFields(t *testing.T) {
	rows := []map[string]interface{}{
		{
			"trade_number": float64(1),
			"entry_date":   "2023-04-06",
			"exit_date":    "2023-04-06",
			"leg_type":     "CE",
			"strike":       float64(17500),
			"side":         "SELL",
			"quantity":     float64(50),
			"entry_price":  float64(112.5),
			"exit_price":   float64(80),
			"net_pnl":      float64(1625),
		},
		{
			// Legacy export naming.
			"Trade #":     float64(2),
			"Entry Date":  "2023-04-13",
			"Exit Date":   "2023-04-13",
			"Type":        "PE",
			"Strike":      float64(17300),
			"Side":        "SELL",
			"Qty":         float64(50),
			"Entry Price": "95.25",
			"Exit Price":  "120.00",
			"Net P&L":     "-1237.5",
		},
	}

	records := MapEngineTrades(rows)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.TradeNumber != 1 || first.LegType != "CE" || first.Strike != 17500 || first.NetPnl != 1625 {
		t.Fatalf("canonical row mapped incorrectly: %+v", first)
	}

	second := records[1]
	if second.TradeNumber != 2 || second.LegType != "PE" {
		t.Fatalf("aliased row mapped incorrectly: %+v", second)
	}
	if second.EntryPrice != 95.25 || second.NetPnl != -1237.5 {
		t.Fatalf("string-typed numbers not coerced: %+v", second)
	}
}

func TestMapEngineTrades_MissingTradeNumberFallsBackToOne(t *testing.T) {
	rows := []map[string]interface{}{
		{"net_pnl": float64(500)},
		{"trade_number": float64(0), "net_pnl": float64(-200)},
	}

	records := MapEngineTrades(rows)
	for i, rec := range records {
		if rec.TradeNumber != 1 {
			t.Fatalf("row %d: expected fallback trade number 1, got %d", i, rec.TradeNumber)
		}
	}
}

func TestMapEngineTrades_EmptyInput(t *testing.T) {
	records := MapEngineTrades(nil)
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", records)
	}
}

func TestMapEngineSummary(t *testing.T) {
	raw := map[string]interface{}{
		"Total P&L":    float64(41250),
		"Win Rate (%)": float64(62.5),
		"CAGR (%)":     "18.4",
		"Max Drawdown": float64(-9800),
		"garbage":      "ignored",
		"avg_win":      "not-a-number",
	}

	summary := MapEngineSummary(raw)

	if summary.TotalPnl == nil || *summary.TotalPnl != 41250 {
		t.Fatalf("total pnl not mapped: %+v", summary.TotalPnl)
	}
	if summary.WinRate == nil || *summary.WinRate != 62.5 {
		t.Fatalf("win rate not mapped: %+v", summary.WinRate)
	}
	if summary.Cagr == nil || *summary.Cagr != 18.4 {
		t.Fatalf("string CAGR not coerced: %+v", summary.Cagr)
	}
	if summary.MaxDrawdown == nil || *summary.MaxDrawdown != -9800 {
		t.Fatalf("max drawdown not mapped: %+v", summary.MaxDrawdown)
	}
	if summary.AvgWin != nil {
		t.Fatalf("non-numeric value must stay nil, got %v", *summary.AvgWin)
	}
	if summary.Expectancy != nil {
		t.Fatalf("absent field must stay nil, got %v", *summary.Expectancy)
	}
}

func TestRenderFailureDetail_PlainString(t *testing.T) {
	msg := RenderFailureDetail(json.RawMessage(`"index XBANK is not supported"`))
	if msg != "index XBANK is not supported" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestRenderFailureDetail_FieldViolations(t *testing.T) {
	raw := json.RawMessage(`[
		{"loc": ["body", "legs", 0, "lots"], "msg": "must be positive"},
		{"loc": ["body", "date_from"], "msg": "invalid date"}
	]`)

	msg := RenderFailureDetail(raw)
	want := "body.legs.0.lots: must be positive; body.date_from: invalid date"
	if msg != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", msg, want)
	}
}

func TestRenderFailureDetail_Empty(t *testing.T) {
	if msg := RenderFailureDetail(nil); msg == "" {
		t.Fatal("empty detail must still produce a user-facing message")
	}
}
