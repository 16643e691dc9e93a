package model

// StrikeTag identifies which strike-selection variant a leg uses. The set is
// closed: construct a StrikeSelection through the constructors below so the
// resolver can switch over tags exhaustively.
type StrikeTag string

const (
	StrikeTagStrikeType         StrikeTag = "strike_type"
	StrikeTagPremiumRange       StrikeTag = "premium_range"
	StrikeTagClosestPremium     StrikeTag = "closest_premium"
	StrikeTagPremiumGTE         StrikeTag = "premium_gte"
	StrikeTagPremiumLTE         StrikeTag = "premium_lte"
	StrikeTagStraddleWidth      StrikeTag = "straddle_width"
	StrikeTagPctOfATM           StrikeTag = "pct_of_atm"
	StrikeTagSyntheticFuture    StrikeTag = "synthetic_future"
	StrikeTagATMStraddlePremium StrikeTag = "atm_straddle_premium_pct"
	StrikeTagClosestDelta       StrikeTag = "closest_delta"
	StrikeTagDeltaRange         StrikeTag = "delta_range"
)

// AllStrikeTags lists every valid tag, in editing-surface order.
var AllStrikeTags = []StrikeTag{
	StrikeTagStrikeType,
	StrikeTagPremiumRange,
	StrikeTagClosestPremium,
	StrikeTagPremiumGTE,
	StrikeTagPremiumLTE,
	StrikeTagStraddleWidth,
	StrikeTagPctOfATM,
	StrikeTagSyntheticFuture,
	StrikeTagATMStraddlePremium,
	StrikeTagClosestDelta,
	StrikeTagDeltaRange,
}

// StrikeSelection is a tagged union: exactly one tag is active and only the
// parameters belonging to that tag are meaningful. Offset holds strike steps
// (STRIKE_TYPE, STRADDLE_WIDTH), Value holds the single numeric parameter of
// the premium / percent / delta variants, Lower and Upper hold the range
// bounds of PREMIUM_RANGE and DELTA_RANGE.
type StrikeSelection struct {
	Tag    StrikeTag `json:"tag"`
	Offset int       `json:"offset,omitempty"`
	Value  float64   `json:"value,omitempty"`
	Lower  float64   `json:"lower,omitempty"`
	Upper  float64   `json:"upper,omitempty"`
}

// StrikeAtOffset selects a strike by signed distance from at-the-money.
// Positive offsets are out-of-the-money, negative in-the-money, 0 is ATM.
func StrikeAtOffset(offset int) *StrikeSelection {
	return &StrikeSelection{Tag: StrikeTagStrikeType, Offset: offset}
}

// StrikePremiumRange selects the strike whose premium falls inside
// [lower, upper]. lower must be strictly below upper; the resolver rejects
// inverted ranges instead of silently swapping them.
func StrikePremiumRange(lower, upper float64) *StrikeSelection {
	return &StrikeSelection{Tag: StrikeTagPremiumRange, Lower: lower, Upper: upper}
}

// StrikeClosestPremium selects the strike whose premium is nearest target.
func StrikeClosestPremium(target float64) *StrikeSelection {
	return &StrikeSelection{Tag: StrikeTagClosestPremium, Value: target}
}

// StrikePremiumGTE selects the first strike with premium >= value.
func StrikePremiumGTE(value float64) *StrikeSelection {
	return &StrikeSelection{Tag: StrikeTagPremiumGTE, Value: value}
}

// StrikePremiumLTE selects the first strike with premium <= value.
func StrikePremiumLTE(value float64) *StrikeSelection {
	return &StrikeSelection{Tag: StrikeTagPremiumLTE, Value: value}
}

// StrikeStraddleWidth selects strikes a fixed number of steps away from the
// ATM straddle on each side. Independent of the leg's option type.
func StrikeStraddleWidth(strikesAway int) *StrikeSelection {
	return &StrikeSelection{Tag: StrikeTagStraddleWidth, Offset: strikesAway}
}

// StrikePctOfATM selects the strike at a signed percent distance from the
// ATM strike. Zero percent is exactly ATM.
func StrikePctOfATM(signedPercent float64) *StrikeSelection {
	return &StrikeSelection{Tag: StrikeTagPctOfATM, Value: signedPercent}
}

// StrikeSyntheticFuture pairs the ATM call and put into a synthetic future.
// No parameters.
func StrikeSyntheticFuture() *StrikeSelection {
	return &StrikeSelection{Tag: StrikeTagSyntheticFuture}
}

// StrikeATMStraddlePremiumPct selects the strike whose distance from ATM is
// the given percentage of the combined ATM straddle premium.
func StrikeATMStraddlePremiumPct(percent float64) *StrikeSelection {
	return &StrikeSelection{Tag: StrikeTagATMStraddlePremium, Value: percent}
}

// StrikeClosestDelta selects the strike whose delta is nearest the target.
func StrikeClosestDelta(delta float64) *StrikeSelection {
	return &StrikeSelection{Tag: StrikeTagClosestDelta, Value: delta}
}

// StrikeDeltaRange selects the strike whose delta falls inside
// [lower, upper]. Same ordering rule as StrikePremiumRange.
func StrikeDeltaRange(lower, upper float64) *StrikeSelection {
	return &StrikeSelection{Tag: StrikeTagDeltaRange, Lower: lower, Upper: upper}
}

// StrikeDescriptor is the normalized form the backtest engine consumes.
// The payload builder embeds it verbatim into the per-leg wire record.
type StrikeDescriptor struct {
	Type       string  `json:"type"`
	StrikeType int     `json:"strike_type"`
	Premium    float64 `json:"premium"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Delta      float64 `json:"delta,omitempty"`
}
