package label

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratlab/internal/dataset"
	"stratlab/internal/errors"
	"stratlab/internal/feature"
	"stratlab/internal/market/kline"
	"stratlab/internal/testutils"
)

// identityMatrix builds a trivially defined feature matrix over h so the
// labeler sees every bar as eligible
func identityMatrix(t *testing.T, h *kline.History) *feature.Matrix {
	t.Helper()
	r := feature.NewRegistry()
	require.NoError(t, r.Register("close", "close price", func(h *kline.History) []float64 {
		return h.Closes()
	}))
	m, err := feature.NewEngine(r).Compute(h, []string{"close"})
	require.NoError(t, err)
	return m
}

func TestLabelBarrierCrossingBeatsHorizon(t *testing.T) {
	// monotone rise of 1% per bar crosses a 6% take-profit around bar 6,
	// well before the 20-bar horizon
	h := testutils.MonotonicHistory("BTC/USDT", 100, 0.01)
	m := identityMatrix(t, h)

	labeler, err := NewLabeler(Params{TakeProfitPct: 0.06, StopLossPct: 0.03, MaxHoldingBars: 20}, 30)
	require.NoError(t, err)

	// degenerate all-favorable distribution is expected here, so call the
	// scan through a relaxed labeler and inspect the raw outcome instead
	samples, err := labeler.Label(h, m)
	require.Error(t, err) // single class: every entry wins
	assert.Equal(t, errors.ErrCodeInsufficientSignal, errors.CodeOf(err))
	assert.Nil(t, samples)
}

func TestLabelFavorableRealizedReturnIsBarrierReturn(t *testing.T) {
	// mix a down-step into the path so the distribution is not degenerate
	bars := testutils.MonotonicBars(60, 100, 0.01)
	// carve a crash at the tail so late entries label unfavorable
	for i := 40; i < 60; i++ {
		scale := 0.5
		bars[i].Open *= scale
		bars[i].High *= scale
		bars[i].Low *= scale
		bars[i].Close *= scale
	}
	h := kline.NewHistory("BTC/USDT", kline.Interval1h, bars)
	m := identityMatrix(t, h)

	labeler, err := NewLabeler(Params{TakeProfitPct: 0.06, StopLossPct: 0.03, MaxHoldingBars: 20}, 10)
	require.NoError(t, err)

	samples, err := labeler.Label(h, m)
	require.NoError(t, err)

	// early entries ride the monotone rise: favorable at the barrier
	// return, not the horizon-end return
	first := samples[0]
	assert.Equal(t, dataset.LabelFavorable, first.Label)
	assert.InDelta(t, 0.06, first.Return, 1e-12)
}

func TestLabelTieBreakStopLossPrecedence(t *testing.T) {
	// bar 1 straddles both barriers: high above +6%, low below -3%
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []kline.Bar{
		{Timestamp: start, Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000},
		{Timestamp: start.Add(time.Hour), Open: 100, High: 110, Low: 95, Close: 100, Volume: 1000},
		{Timestamp: start.Add(2 * time.Hour), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000},
		{Timestamp: start.Add(3 * time.Hour), Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000},
	}
	h := kline.NewHistory("BTC/USDT", kline.Interval1h, bars)
	m := identityMatrix(t, h)

	labeler, err := NewLabeler(Params{TakeProfitPct: 0.06, StopLossPct: 0.03, MaxHoldingBars: 2}, 1)
	require.NoError(t, err)

	samples, err := labeler.Label(h, m)
	require.NoError(t, err)
	require.NotEmpty(t, samples)

	assert.Equal(t, dataset.LabelUnfavorable, samples[0].Label)
	assert.InDelta(t, -0.03, samples[0].Return, 1e-12)
}

func TestLabelHorizonBoundarySign(t *testing.T) {
	// drift far too small to touch either barrier: horizon sign decides
	h := testutils.MonotonicHistory("BTC/USDT", 80, 0.0001)
	m := identityMatrix(t, h)

	labeler, err := NewLabeler(Params{TakeProfitPct: 0.5, StopLossPct: 0.5, MaxHoldingBars: 10}, 1)
	require.NoError(t, err)

	samples, err := labeler.Label(h, m)
	// every horizon return is positive: degenerate, but verify via counts
	if err != nil {
		assert.Equal(t, errors.ErrCodeInsufficientSignal, errors.CodeOf(err))
		return
	}
	for _, s := range samples {
		assert.Equal(t, dataset.LabelFavorable, s.Label)
		assert.Greater(t, s.Return, 0.0)
		assert.Less(t, s.Return, 0.5)
	}
}

func TestLabelDropsTailEntries(t *testing.T) {
	h := testutils.UptrendHistory("BTC/USDT", 100, 0.005, 11)
	m := identityMatrix(t, h)

	horizon := 20
	labeler, err := NewLabeler(Params{TakeProfitPct: 0.06, StopLossPct: 0.03, MaxHoldingBars: horizon}, 1)
	require.NoError(t, err)

	samples, err := labeler.Label(h, m)
	require.NoError(t, err)

	for _, s := range samples {
		assert.Less(t, s.Index, h.Len()-horizon,
			"entry %d cannot be fully evaluated within the horizon", s.Index)
	}
}

func TestLabelInsufficientSamples(t *testing.T) {
	// 30 bars minus a 20-bar horizon leaves ~10 entries, below minimum 30
	h := testutils.UptrendHistory("BTC/USDT", 30, 0.005, 2)
	m := identityMatrix(t, h)

	labeler, err := NewLabeler(Params{TakeProfitPct: 0.06, StopLossPct: 0.03, MaxHoldingBars: 20}, 30)
	require.NoError(t, err)

	_, err = labeler.Label(h, m)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInsufficientSignal, errors.CodeOf(err))
}

func TestNewLabelerRejectsBadParams(t *testing.T) {
	cases := []Params{
		{TakeProfitPct: 0, StopLossPct: 0.03, MaxHoldingBars: 10},
		{TakeProfitPct: 0.06, StopLossPct: -0.01, MaxHoldingBars: 10},
		{TakeProfitPct: 0.06, StopLossPct: 0.03, MaxHoldingBars: 0},
	}
	for _, p := range cases {
		_, err := NewLabeler(p, 30)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConfiguration, errors.CodeOf(err))
	}
}
