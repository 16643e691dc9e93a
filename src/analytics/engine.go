package analytics

import (
	"math"
	"time"

	"strategydesk/src/mapper"
	"strategydesk/src/model"
	"strategydesk/src/utils"
)

// Options supplies the externally-owned inputs of the ratio calculations.
// InitialCapital and the date span feed CAGR and CAR/MDD when the engine's
// own summary does not carry them.
type Options struct {
	InitialCapital float64
	DateFrom       time.Time
	DateTo         time.Time
}

// Compute derives the chart-ready series and summary ratios from ordered
// trade groups in a single left-to-right pass. The input is not mutated and
// the result is deterministic: the same groups always produce bit-identical
// values.
func Compute(groups []model.TradeGroup, opts Options) model.AnalyticsResult {
	result := model.AnalyticsResult{
		EquityPoints:   make([]model.EquityPoint, 0, len(groups)),
		DrawdownPoints: make([]model.DrawdownPoint, 0, len(groups)),
	}

	var (
		cumulative float64
		peak       float64

		winCount  int
		lossCount int
		sumWins   float64
		sumLosses float64 // magnitudes

		winStreak, lossStreak       int
		maxWinStreak, maxLossStreak int
	)

	s := &result.Summary
	s.TotalTrades = len(groups)

	for i, group := range groups {
		pnl := group.TotalPnl
		cumulative += pnl
		if cumulative > peak {
			peak = cumulative
		}
		drawdown := cumulative - peak

		percent := 0.0
		if peak > 0 {
			percent = drawdown / peak * 100
		}

		result.EquityPoints = append(result.EquityPoints, model.EquityPoint{
			Index:      i,
			Cumulative: cumulative,
			Pnl:        pnl,
		})
		result.DrawdownPoints = append(result.DrawdownPoints, model.DrawdownPoint{
			Index:    i,
			Drawdown: drawdown,
			Percent:  percent,
		})

		if drawdown < s.MaxDrawdown {
			s.MaxDrawdown = drawdown
		}

		switch {
		case pnl > 0:
			winCount++
			sumWins += pnl
			if pnl > s.MaxWin {
				s.MaxWin = pnl
			}
			winStreak++
			lossStreak = 0
			if winStreak > maxWinStreak {
				maxWinStreak = winStreak
			}
		case pnl < 0:
			lossCount++
			sumLosses += -pnl
			if pnl < s.MaxLoss {
				s.MaxLoss = pnl
			}
			lossStreak++
			winStreak = 0
			if lossStreak > maxLossStreak {
				maxLossStreak = lossStreak
			}
		default:
			// Flat trades are streak-neutral: they neither extend nor
			// reset either counter.
		}
	}

	s.TotalPnl = cumulative
	s.MaxWinStreak = maxWinStreak
	s.MaxLossStreak = maxLossStreak

	if len(groups) > 0 {
		s.WinRate = float64(winCount) / float64(len(groups)) * 100
	}
	if winCount > 0 {
		s.AvgWin = sumWins / float64(winCount)
	}
	if lossCount > 0 {
		s.AvgLoss = sumLosses / float64(lossCount)
	}

	p := s.WinRate / 100
	s.Expectancy = p*s.AvgWin - (1-p)*s.AvgLoss

	if s.MaxDrawdown != 0 {
		s.RecoveryFactor = s.TotalPnl / math.Abs(s.MaxDrawdown)
	}

	s.Cagr = computeCagr(s.TotalPnl, opts)
	s.CarMdd = computeCarMdd(s.Cagr, s.MaxDrawdown, opts.InitialCapital)

	return result
}

// MergeEngineSummary overlays the engine's own pre-computed ratios on top of
// the locally computed summary. Values the engine sent are preferred; absent
// ones keep the local computation. The backtest engine is an independent,
// evolving collaborator, so every field is optional.
func MergeEngineSummary(s *model.Summary, es mapper.EngineSummary) {
	if es.TotalPnl != nil {
		s.TotalPnl = *es.TotalPnl
	}
	if es.WinRate != nil {
		s.WinRate = *es.WinRate
	}
	if es.AvgWin != nil {
		s.AvgWin = *es.AvgWin
	}
	if es.AvgLoss != nil {
		s.AvgLoss = *es.AvgLoss
	}
	if es.MaxWin != nil {
		s.MaxWin = *es.MaxWin
	}
	if es.MaxLoss != nil {
		s.MaxLoss = *es.MaxLoss
	}
	if es.MaxDrawdown != nil {
		s.MaxDrawdown = *es.MaxDrawdown
	}
	if es.MaxWinStreak != nil {
		s.MaxWinStreak = int(*es.MaxWinStreak)
	}
	if es.MaxLossStreak != nil {
		s.MaxLossStreak = int(*es.MaxLossStreak)
	}
	if es.Cagr != nil {
		s.Cagr = *es.Cagr
	}
	if es.CarMdd != nil {
		s.CarMdd = *es.CarMdd
	}
	if es.Expectancy != nil {
		s.Expectancy = *es.Expectancy
	}
	if es.RecoveryFactor != nil {
		s.RecoveryFactor = *es.RecoveryFactor
	}
}

func computeCagr(totalPnl float64, opts Options) float64 {
	if opts.InitialCapital <= 0 {
		return 0
	}
	years := utils.ElapsedYears(opts.DateFrom, opts.DateTo)
	if years <= 0 {
		return 0
	}
	growth := 1 + totalPnl/opts.InitialCapital
	if growth <= 0 {
		// Capital wiped out; the compound rate is not meaningful.
		return 0
	}
	return (math.Pow(growth, 1/years) - 1) * 100
}

func computeCarMdd(cagr, maxDrawdown, initialCapital float64) float64 {
	if maxDrawdown == 0 || initialCapital <= 0 {
		return 0
	}
	mddPct := math.Abs(maxDrawdown) / initialCapital * 100
	return cagr / mddPct
}
