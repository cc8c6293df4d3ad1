package feature

import (
	"stratlab/internal/market/kline"
)

// NewBuiltinRegistry creates a registry populated with every built-in
// feature. Registration is explicit so the full catalogue is visible in
// one place; there is no hidden global mutation or discovery step.
func NewBuiltinRegistry() (*Registry, error) {
	r := NewRegistry()

	builtins := []struct {
		name        string
		description string
		fn          Func
	}{
		{
			"rsi_14",
			"Relative Strength Index (14 period) - momentum oscillator 0-100",
			func(h *kline.History) []float64 { return rsi(h.Closes(), 14) },
		},
		{
			"rsi_7",
			"RSI short period - more sensitive to recent moves",
			func(h *kline.History) []float64 { return rsi(h.Closes(), 7) },
		},
		{
			"macd_signal",
			"MACD signal line - trend following momentum",
			func(h *kline.History) []float64 { return macdSignal(h.Closes(), 12, 26, 9) },
		},
		{
			"macd_diff",
			"MACD histogram - divergence between MACD and signal",
			func(h *kline.History) []float64 { return macdDiff(h.Closes(), 12, 26, 9) },
		},
		{
			"atr_14",
			"Average True Range - volatility measure in price units",
			func(h *kline.History) []float64 {
				high := make([]float64, h.Len())
				low := make([]float64, h.Len())
				for i, b := range h.Bars {
					high[i] = b.High
					low[i] = b.Low
				}
				return atr(high, low, h.Closes(), 14)
			},
		},
		{
			"bb_width",
			"Bollinger Band width - measures volatility expansion/contraction",
			func(h *kline.History) []float64 { return bbWidth(h.Closes(), 20, 2.0) },
		},
		{
			"volume_zscore",
			"Volume Z-score - how unusual current volume is vs 20-period mean",
			func(h *kline.History) []float64 { return zscore(volumes(h), 20) },
		},
		{
			"obv",
			"On Balance Volume - cumulative volume pressure indicator",
			func(h *kline.History) []float64 { return obv(h.Closes(), volumes(h)) },
		},
		{
			"vwap_distance",
			"Distance from VWAP as % - mean reversion signal",
			func(h *kline.History) []float64 { return vwapDistance(h.Closes(), volumes(h)) },
		},
		{
			"log_return",
			"Log return of close price",
			func(h *kline.History) []float64 { return logReturn(h.Closes()) },
		},
		{
			"rolling_volatility_24",
			"24-period rolling realized volatility",
			func(h *kline.History) []float64 { return rollingVolatility(h.Closes(), 24) },
		},
		{
			"funding_rate",
			"Perpetual futures funding rate - crowding/sentiment indicator",
			func(h *kline.History) []float64 {
				out := make([]float64, h.Len())
				for i, b := range h.Bars {
					out[i] = b.FundingRate
				}
				return out
			},
		},
		{
			"open_interest_change",
			"Change in open interest - new money entering market",
			func(h *kline.History) []float64 {
				oi := make([]float64, h.Len())
				for i, b := range h.Bars {
					oi[i] = b.OpenInterest
				}
				return pctChange(oi)
			},
		},
	}

	for _, b := range builtins {
		if err := r.Register(b.name, b.description, b.fn); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func volumes(h *kline.History) []float64 {
	out := make([]float64, h.Len())
	for i, b := range h.Bars {
		out[i] = b.Volume
	}
	return out
}
