package kline

import (
	"time"
)

// Interval represents a candlestick interval
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

// GetIntervalDuration returns the duration of an interval
func GetIntervalDuration(interval Interval) time.Duration {
	switch interval {
	case Interval1m:
		return time.Minute
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval30m:
		return 30 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval4h:
		return 4 * time.Hour
	case Interval1d:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// BarsPerYear returns how many bars of the interval fit in a year,
// used to annualize per-bar return statistics
func BarsPerYear(interval Interval) float64 {
	return float64(365*24*time.Hour) / float64(GetIntervalDuration(interval))
}

// Bar represents a single validated OHLCV candlestick. FundingRate and
// OpenInterest are optional perpetual-futures fields; zero means absent.
type Bar struct {
	Timestamp    time.Time `json:"timestamp"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       float64   `json:"volume"`
	FundingRate  float64   `json:"funding_rate,omitempty"`
	OpenInterest float64   `json:"open_interest,omitempty"`
}
