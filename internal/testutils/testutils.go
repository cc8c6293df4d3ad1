package testutils

import (
	"math"
	"math/rand"
	"time"

	"stratlab/internal/market/kline"
)

// Synthetic price-path generators for pipeline tests. Everything here is
// seeded so tests are reproducible run to run.

// BarStart is the timestamp of the first synthetic bar
var BarStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TrendBars generates n bars following a geometric drift per bar with
// seeded gaussian noise. drift and noise are fractional (0.02 = 2%).
func TrendBars(n int, startPrice, drift, noise float64, seed int64) []kline.Bar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]kline.Bar, n)
	price := startPrice
	for i := 0; i < n; i++ {
		ret := drift + noise*rng.NormFloat64()
		next := price * (1 + ret)
		if next < 1e-6 {
			next = 1e-6
		}
		high := math.Max(price, next) * (1 + 0.002 + 0.001*rng.Float64())
		low := math.Min(price, next) * (1 - 0.002 - 0.001*rng.Float64())
		bars[i] = kline.Bar{
			Timestamp: BarStart.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      high,
			Low:       low,
			Close:     next,
			Volume:    1000 + 100*rng.Float64(),
		}
		price = next
	}
	return bars
}

// UptrendHistory generates a validated uptrend history with the given
// average drift per bar
func UptrendHistory(symbol string, n int, drift float64, seed int64) *kline.History {
	return kline.NewHistory(symbol, kline.Interval1h, TrendBars(n, 100, drift, drift/4, seed))
}

// FlatHistory generates a sideways path with small noise
func FlatHistory(symbol string, n int, seed int64) *kline.History {
	return kline.NewHistory(symbol, kline.Interval1h, TrendBars(n, 100, 0, 0.002, seed))
}

// MonotonicBars generates bars whose close rises by exactly step per bar,
// with highs/lows hugging the closes. Useful for exact labeling tests.
func MonotonicBars(n int, startPrice, step float64) []kline.Bar {
	bars := make([]kline.Bar, n)
	price := startPrice
	for i := 0; i < n; i++ {
		next := price * (1 + step)
		bars[i] = kline.Bar{
			Timestamp: BarStart.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      math.Max(price, next),
			Low:       math.Min(price, next),
			Close:     next,
			Volume:    1000,
		}
		price = next
	}
	return bars
}

// MonotonicHistory wraps MonotonicBars in a validated history
func MonotonicHistory(symbol string, n int, step float64) *kline.History {
	return kline.NewHistory(symbol, kline.Interval1h, MonotonicBars(n, 100, step))
}
