package strategy

import (
	"fmt"

	logger "github.com/sirupsen/logrus"

	"strategydesk/src/model"
)

// ResolveStrike normalizes one strike selection into the descriptor the
// backtest engine consumes. Missing parameters of the active tag default to
// zero rather than erroring; the two range variants are the exception, where
// lower >= upper is rejected instead of silently corrected.
//
// Sign convention for offset-based variants: positive is out-of-the-money,
// negative in-the-money, 0 at-the-money, applied symmetrically to calls and
// puts. STRADDLE_WIDTH and SYNTHETIC_FUTURE do not depend on the option type.
func ResolveStrike(sel *model.StrikeSelection, optType model.OptionType) (model.StrikeDescriptor, error) {
	if sel == nil {
		return model.StrikeDescriptor{}, fmt.Errorf("strike selection is nil")
	}

	switch sel.Tag {
	case model.StrikeTagStrikeType:
		return model.StrikeDescriptor{
			Type:       string(model.StrikeTagStrikeType),
			StrikeType: sel.Offset,
		}, nil

	case model.StrikeTagPremiumRange:
		if sel.Lower >= sel.Upper {
			return model.StrikeDescriptor{}, fmt.Errorf(
				"premium range lower bound %.2f must be below upper bound %.2f", sel.Lower, sel.Upper)
		}
		return model.StrikeDescriptor{
			Type:  string(model.StrikeTagPremiumRange),
			Lower: sel.Lower,
			Upper: sel.Upper,
		}, nil

	case model.StrikeTagClosestPremium:
		return model.StrikeDescriptor{
			Type:    string(model.StrikeTagClosestPremium),
			Premium: sel.Value,
		}, nil

	case model.StrikeTagPremiumGTE:
		return model.StrikeDescriptor{
			Type:    string(model.StrikeTagPremiumGTE),
			Premium: sel.Value,
		}, nil

	case model.StrikeTagPremiumLTE:
		return model.StrikeDescriptor{
			Type:    string(model.StrikeTagPremiumLTE),
			Premium: sel.Value,
		}, nil

	case model.StrikeTagStraddleWidth:
		// Symmetric around the straddle; the engine applies the width to
		// each side, so the option type is irrelevant here.
		return model.StrikeDescriptor{
			Type:       string(model.StrikeTagStraddleWidth),
			StrikeType: sel.Offset,
		}, nil

	case model.StrikeTagPctOfATM:
		if sel.Value == 0 {
			// Zero percent is exactly the ATM strike; collapse to the
			// canonical ATM descriptor so equivalent selections compare equal.
			logger.WithField("tag", sel.Tag).Debug("pct_of_atm 0 collapsed to ATM strike_type")
			return model.StrikeDescriptor{
				Type:       string(model.StrikeTagStrikeType),
				StrikeType: 0,
			}, nil
		}
		return model.StrikeDescriptor{
			Type:    string(model.StrikeTagPctOfATM),
			Premium: sel.Value,
		}, nil

	case model.StrikeTagSyntheticFuture:
		return model.StrikeDescriptor{
			Type: string(model.StrikeTagSyntheticFuture),
		}, nil

	case model.StrikeTagATMStraddlePremium:
		return model.StrikeDescriptor{
			Type:    string(model.StrikeTagATMStraddlePremium),
			Premium: sel.Value,
		}, nil

	case model.StrikeTagClosestDelta:
		return model.StrikeDescriptor{
			Type:  string(model.StrikeTagClosestDelta),
			Delta: sel.Value,
		}, nil

	case model.StrikeTagDeltaRange:
		if sel.Lower >= sel.Upper {
			return model.StrikeDescriptor{}, fmt.Errorf(
				"delta range lower bound %.3f must be below upper bound %.3f", sel.Lower, sel.Upper)
		}
		return model.StrikeDescriptor{
			Type:  string(model.StrikeTagDeltaRange),
			Lower: sel.Lower,
			Upper: sel.Upper,
		}, nil

	default:
		return model.StrikeDescriptor{}, fmt.Errorf("unknown strike selection tag %q", sel.Tag)
	}
}
