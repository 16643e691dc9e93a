package strategy

import (
	"fmt"
	"strings"

	"strategydesk/src/model"
)

// Severity separates blocking configuration errors from advisories the
// caller may surface without refusing submission.
type Severity string

const (
	SeverityError    Severity = "error"
	SeverityAdvisory Severity = "advisory"
)

const (
	CodeLegCount       = "leg_count"
	CodeLegShape       = "leg_shape"
	CodeExpiryConflict = "expiry_basis_conflict"
	CodeDTEBounds      = "dte_bounds"
	CodeDTEOrder       = "dte_order"
	CodeDateRange      = "date_range"
	CodeStrikeRange    = "strike_range"
	CodeZeroDTE        = "zero_dte"
)

// Violation is one validation finding. LegPositions carries the 1-based
// positions of offending legs where a check is per-leg.
type Violation struct {
	Code         string   `json:"code"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`
	LegPositions []int    `json:"leg_positions,omitempty"`
}

// HasBlocking reports whether any violation in the slice is a hard error.
func HasBlocking(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks the cross-field invariants of a strategy before a request
// may be built from it. It collects every applicable violation rather than
// short-circuiting, and never panics on expected-shape input; the caller
// decides whether blocking violations stop submission.
func Validate(cfg *model.StrategyConfig, maxLegs int) []Violation {
	var out []Violation

	if cfg == nil {
		return []Violation{{
			Code:     CodeLegCount,
			Severity: SeverityError,
			Message:  "strategy is empty",
		}}
	}

	if len(cfg.Legs) < 1 {
		out = append(out, Violation{
			Code:     CodeLegCount,
			Severity: SeverityError,
			Message:  "strategy needs at least one leg",
		})
	} else if len(cfg.Legs) > maxLegs {
		out = append(out, Violation{
			Code:     CodeLegCount,
			Severity: SeverityError,
			Message:  fmt.Sprintf("strategy has %d legs, maximum is %d", len(cfg.Legs), maxLegs),
		})
	}

	if cfg.ExpiryBasis == model.BasisMonthly {
		var weekly []int
		for i, leg := range cfg.Legs {
			if leg.Expiry.IsWeekly() {
				weekly = append(weekly, i+1)
			}
		}
		if len(weekly) > 0 {
			out = append(out, Violation{
				Code:         CodeExpiryConflict,
				Severity:     SeverityError,
				Message:      fmt.Sprintf("monthly expiry basis forbids weekly leg expiries (legs %s)", joinPositions(weekly)),
				LegPositions: weekly,
			})
		}
	}

	maxDTE := model.MaxDTEForBasis(cfg.ExpiryBasis)
	if cfg.EntryDaysBeforeExpiry < 0 || cfg.EntryDaysBeforeExpiry > maxDTE ||
		cfg.ExitDaysBeforeExpiry < 0 || cfg.ExitDaysBeforeExpiry > maxDTE {
		out = append(out, Violation{
			Code:     CodeDTEBounds,
			Severity: SeverityError,
			Message:  fmt.Sprintf("entry/exit days before expiry must be within 0 and %d for %s basis", maxDTE, cfg.ExpiryBasis),
		})
	}

	// Exiting later than entering is contradictory. Treated as blocking
	// everywhere; see DESIGN.md for the policy decision.
	if cfg.ExitDaysBeforeExpiry > cfg.EntryDaysBeforeExpiry {
		out = append(out, Violation{
			Code:     CodeDTEOrder,
			Severity: SeverityError,
			Message: fmt.Sprintf("exit %d days before expiry is earlier than entry %d days before expiry",
				cfg.ExitDaysBeforeExpiry, cfg.EntryDaysBeforeExpiry),
		})
	}

	if !cfg.DateFrom.Before(cfg.DateTo) {
		out = append(out, Violation{
			Code:     CodeDateRange,
			Severity: SeverityError,
			Message:  "date_from must be before date_to",
		})
	}

	out = append(out, validateLegs(cfg.Legs)...)

	if cfg.EntryDaysBeforeExpiry == 0 && cfg.ExitDaysBeforeExpiry == 0 {
		out = append(out, Violation{
			Code:     CodeZeroDTE,
			Severity: SeverityAdvisory,
			Message: "entry and exit both on expiry day: strikes resolve against same-day " +
				"underlying data and results may differ from non-zero DTE runs",
		})
	}

	return out
}

func validateLegs(legs []model.Leg) []Violation {
	var out []Violation

	var badShape []int
	var badLots []int
	var badRange []int

	for i, leg := range legs {
		pos := i + 1

		switch leg.Instrument {
		case model.InstrumentOption:
			if leg.OptionType == "" || leg.Strike == nil {
				badShape = append(badShape, pos)
			}
		case model.InstrumentFuture:
			if leg.OptionType != "" || leg.Strike != nil || !legExpiryMonthly(leg.Expiry) {
				badShape = append(badShape, pos)
			}
		default:
			badShape = append(badShape, pos)
		}

		if leg.Lots <= 0 {
			badLots = append(badLots, pos)
		}

		if leg.Strike != nil {
			switch leg.Strike.Tag {
			case model.StrikeTagPremiumRange, model.StrikeTagDeltaRange:
				if leg.Strike.Lower >= leg.Strike.Upper {
					badRange = append(badRange, pos)
				}
			}
		}
	}

	if len(badShape) > 0 {
		out = append(out, Violation{
			Code:         CodeLegShape,
			Severity:     SeverityError,
			Message:      fmt.Sprintf("legs %s mix option and future fields incorrectly", joinPositions(badShape)),
			LegPositions: badShape,
		})
	}
	if len(badLots) > 0 {
		out = append(out, Violation{
			Code:         CodeLegShape,
			Severity:     SeverityError,
			Message:      fmt.Sprintf("legs %s need a positive lot count", joinPositions(badLots)),
			LegPositions: badLots,
		})
	}
	if len(badRange) > 0 {
		out = append(out, Violation{
			Code:         CodeStrikeRange,
			Severity:     SeverityError,
			Message:      fmt.Sprintf("legs %s have an inverted premium/delta range (lower must be below upper)", joinPositions(badRange)),
			LegPositions: badRange,
		})
	}

	return out
}

func legExpiryMonthly(e model.LegExpiry) bool {
	return e == model.ExpiryMonthly || e == model.ExpiryNextMonthly
}

func joinPositions(positions []int) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, ", ")
}
