package utils

import (
	"time"
)

// ElapsedYears returns the span between two times in fractional years.
// Uses the mean Gregorian year; fine for annualizing backtest spans.
func ElapsedYears(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24 / 365.25
}

// BacktestDate formats a time the way the engine expects date bounds.
func BacktestDate(t time.Time) string {
	return t.Format("2006-01-02")
}
