package feature

import (
	"math"
)

// Indicator computations. Every function returns a slice aligned
// one-to-one with its input; indices inside the warm-up window hold NaN.
// Values at index i are computed from inputs at indices <= i only.

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// sma computes a simple moving average over a trailing window
func sma(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// rollingStd computes the trailing sample standard deviation
func rollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 1 || len(values) < window {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		mean := 0.0
		for j := i - window + 1; j <= i; j++ {
			mean += values[j]
		}
		mean /= float64(window)
		variance := 0.0
		for j := i - window + 1; j <= i; j++ {
			diff := values[j] - mean
			variance += diff * diff
		}
		variance /= float64(window - 1)
		out[i] = math.Sqrt(variance)
	}
	return out
}

// ema computes an exponential moving average seeded with the SMA of the
// first period values
func ema(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	alpha := 2.0 / (float64(period) + 1)
	prev := seed
	for i := period; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// emaOver applies an EMA to a series that itself has a NaN warm-up prefix
func emaOver(values []float64, period int) []float64 {
	start := 0
	for start < len(values) && math.IsNaN(values[start]) {
		start++
	}
	out := nanSlice(len(values))
	tail := ema(values[start:], period)
	copy(out[start:], tail)
	return out
}

// rsi computes the Wilder Relative Strength Index
func rsi(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// macdLine computes EMA(fast) - EMA(slow)
func macdLine(closes []float64, fast, slow int) []float64 {
	fastEMA := ema(closes, fast)
	slowEMA := ema(closes, slow)
	out := nanSlice(len(closes))
	for i := range closes {
		if !math.IsNaN(fastEMA[i]) && !math.IsNaN(slowEMA[i]) {
			out[i] = fastEMA[i] - slowEMA[i]
		}
	}
	return out
}

// macdSignal computes the EMA of the MACD line
func macdSignal(closes []float64, fast, slow, signal int) []float64 {
	return emaOver(macdLine(closes, fast, slow), signal)
}

// macdDiff computes the MACD histogram (line minus signal)
func macdDiff(closes []float64, fast, slow, signal int) []float64 {
	line := macdLine(closes, fast, slow)
	sig := macdSignal(closes, fast, slow, signal)
	out := nanSlice(len(closes))
	for i := range closes {
		if !math.IsNaN(line[i]) && !math.IsNaN(sig[i]) {
			out[i] = line[i] - sig[i]
		}
	}
	return out
}

func trueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if d := math.Abs(high - prevClose); d > tr {
		tr = d
	}
	if d := math.Abs(low - prevClose); d > tr {
		tr = d
	}
	return tr
}

// atr computes the Wilder Average True Range
func atr(high, low, closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	seed := 0.0
	for i := 1; i <= period; i++ {
		seed += trueRange(high[i], low[i], closes[i-1])
	}
	seed /= float64(period)
	out[period] = seed

	prev := seed
	for i := period + 1; i < len(closes); i++ {
		tr := trueRange(high[i], low[i], closes[i-1])
		prev = (prev*float64(period-1) + tr) / float64(period)
		out[i] = prev
	}
	return out
}

// bbWidth computes the Bollinger Band width (upper-lower)/middle
func bbWidth(closes []float64, window int, k float64) []float64 {
	middle := sma(closes, window)
	std := rollingStd(closes, window)
	out := nanSlice(len(closes))
	for i := range closes {
		if math.IsNaN(middle[i]) || math.IsNaN(std[i]) || middle[i] == 0 {
			continue
		}
		upper := middle[i] + k*std[i]
		lower := middle[i] - k*std[i]
		out[i] = (upper - lower) / middle[i]
	}
	return out
}

// zscore computes (value - trailing mean) / trailing std
func zscore(values []float64, window int) []float64 {
	mean := sma(values, window)
	std := rollingStd(values, window)
	out := nanSlice(len(values))
	for i := range values {
		if math.IsNaN(mean[i]) || math.IsNaN(std[i]) || std[i] == 0 {
			continue
		}
		out[i] = (values[i] - mean[i]) / std[i]
	}
	return out
}

// obv computes On Balance Volume
func obv(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	if len(closes) == 0 {
		return out
	}
	total := 0.0
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			total += volumes[i]
		case closes[i] < closes[i-1]:
			total -= volumes[i]
		}
		out[i] = total
	}
	return out
}

// vwapDistance computes distance from the cumulative VWAP as a fraction
func vwapDistance(closes, volumes []float64) []float64 {
	out := nanSlice(len(closes))
	cumPV := 0.0
	cumV := 0.0
	for i := range closes {
		cumPV += closes[i] * volumes[i]
		cumV += volumes[i]
		if cumV == 0 {
			continue
		}
		vwap := cumPV / cumV
		if vwap != 0 {
			out[i] = (closes[i] - vwap) / vwap
		}
	}
	return out
}

// logReturn computes ln(close[i]/close[i-1])
func logReturn(closes []float64) []float64 {
	out := nanSlice(len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] > 0 && closes[i] > 0 {
			out[i] = math.Log(closes[i] / closes[i-1])
		}
	}
	return out
}

// rollingVolatility computes the trailing std of log returns. NaN from
// the first undefined return propagates through any window touching it.
func rollingVolatility(closes []float64, window int) []float64 {
	return rollingStd(logReturn(closes), window)
}

// pctChange computes (v[i]-v[i-1])/v[i-1], 0 when the base is 0
func pctChange(values []float64) []float64 {
	out := nanSlice(len(values))
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			out[i] = 0
			continue
		}
		out[i] = (values[i] - values[i-1]) / values[i-1]
	}
	return out
}
