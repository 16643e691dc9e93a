package risk

import (
	"github.com/shopspring/decimal"
)

// Lot sizing around a backtested strategy. The engine settles per lot; the
// lot-size table itself is owned by the exchange calendar service, we only
// carry the defaults for the indices we run.

var defaultLotSizes = map[string]int64{
	"NIFTY":      50,
	"BANKNIFTY":  15,
	"FINNIFTY":   40,
	"MIDCPNIFTY": 75,
	"SENSEX":     10,
}

// LotSize returns the contract lot size for an index, or 0 when unknown.
func LotSize(index string) int64 {
	return defaultLotSizes[index]
}

// SizingConfig controls how much of the capital a deployment may use and
// how hard to cut size once a run's drawdown crosses the threshold.
type SizingConfig struct {
	Utilization        decimal.Decimal // fraction of capital deployable, 0..1
	DrawdownThreshold  decimal.Decimal // drawdown as fraction of capital that triggers the throttle
	ThrottleMultiplier decimal.Decimal // size multiplier applied past the threshold
}

// DefaultSizingConfig reasonable defaults, tweak per deployment.
func DefaultSizingConfig() SizingConfig {
	return SizingConfig{
		Utilization:        decimal.NewFromFloat(0.6),
		DrawdownThreshold:  decimal.NewFromFloat(0.1),
		ThrottleMultiplier: decimal.NewFromFloat(0.5),
	}
}

// LegExposure is the notional a leg controls: premium × lot size × lots.
func LegExposure(entryPrice decimal.Decimal, lotSize, lots int64) decimal.Decimal {
	if lotSize <= 0 || lots <= 0 {
		return decimal.Zero
	}
	return entryPrice.
		Mul(decimal.NewFromInt(lotSize)).
		Mul(decimal.NewFromInt(lots))
}

// MaxLots suggests how many lots the capital supports at the configured
// utilization. Returns zero when the inputs make no sense rather than
// guessing.
func MaxLots(capital, marginPerLot decimal.Decimal, cfg SizingConfig) int64 {
	if capital.LessThanOrEqual(decimal.Zero) || marginPerLot.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	deployable := capital.Mul(cfg.Utilization)
	return deployable.Div(marginPerLot).IntPart()
}

// ThrottledLots cuts the base lot count when the running drawdown of the
// strategy exceeds the configured fraction of capital. The bool reports
// whether the throttle fired.
func ThrottledLots(baseLots int64, capital, drawdown decimal.Decimal, cfg SizingConfig) (int64, bool) {
	if baseLots <= 0 {
		return 0, false
	}
	if capital.LessThanOrEqual(decimal.Zero) {
		return baseLots, false
	}

	// Drawdown arrives as a non-positive running value; compare magnitudes.
	magnitude := drawdown.Abs()
	threshold := capital.Mul(cfg.DrawdownThreshold)
	if magnitude.LessThan(threshold) {
		return baseLots, false
	}

	cut := decimal.NewFromInt(baseLots).Mul(cfg.ThrottleMultiplier).IntPart()
	if cut < 1 {
		cut = 1
	}
	return cut, true
}
