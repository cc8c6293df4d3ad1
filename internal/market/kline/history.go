package kline

import (
	"time"

	"stratlab/internal/errors"
)

// History is an immutable snapshot of price history for one asset.
// It is validated once and then shared read-only across any number of
// concurrent evaluations; nothing in the pipeline mutates it.
type History struct {
	Symbol   string
	Interval Interval
	Bars     []Bar
}

// NewHistory creates a history snapshot. The bar slice is copied so later
// mutation of the caller's slice cannot leak into running evaluations.
func NewHistory(symbol string, interval Interval, bars []Bar) *History {
	copied := make([]Bar, len(bars))
	copy(copied, bars)
	return &History{
		Symbol:   symbol,
		Interval: interval,
		Bars:     copied,
	}
}

// Len returns the number of bars
func (h *History) Len() int {
	return len(h.Bars)
}

// Closes returns the close price series
func (h *History) Closes() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Close
	}
	return out
}

// Validate checks the invariants the pipeline assumes: strictly
// increasing timestamps, no duplicate bars, positive prices, coherent
// high/low, and no gap wider than maxGapIntervals timeframe multiples.
// Gappy history is a validation failure, never silently interpolated.
func (h *History) Validate(maxGapIntervals int) error {
	if len(h.Bars) == 0 {
		return errors.New(errors.ErrCodeDataValidation, "empty price history").
			WithAsset(h.Symbol)
	}

	interval := GetIntervalDuration(h.Interval)
	maxGap := time.Duration(maxGapIntervals) * interval

	for i, b := range h.Bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return errors.Newf(errors.ErrCodeDataValidation,
				"non-positive price at bar %d", i).
				WithAsset(h.Symbol).
				WithContext("timestamp", b.Timestamp)
		}
		if b.High < b.Low || b.High < b.Close || b.High < b.Open ||
			b.Low > b.Close || b.Low > b.Open {
			return errors.Newf(errors.ErrCodeDataValidation,
				"incoherent OHLC at bar %d", i).
				WithAsset(h.Symbol).
				WithContext("timestamp", b.Timestamp)
		}
		if b.Volume < 0 {
			return errors.Newf(errors.ErrCodeDataValidation,
				"negative volume at bar %d", i).
				WithAsset(h.Symbol).
				WithContext("timestamp", b.Timestamp)
		}
		if i == 0 {
			continue
		}
		prev := h.Bars[i-1]
		if !b.Timestamp.After(prev.Timestamp) {
			return errors.Newf(errors.ErrCodeDataValidation,
				"timestamps not strictly increasing at bar %d", i).
				WithAsset(h.Symbol).
				WithContext("prev", prev.Timestamp).
				WithContext("curr", b.Timestamp)
		}
		if gap := b.Timestamp.Sub(prev.Timestamp); gap > maxGap {
			return errors.Newf(errors.ErrCodeDataValidation,
				"gap of %s at bar %d exceeds tolerance %s", gap, i, maxGap).
				WithAsset(h.Symbol).
				WithContext("prev", prev.Timestamp).
				WithContext("curr", b.Timestamp)
		}
	}
	return nil
}
