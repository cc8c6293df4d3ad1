package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratlab/internal/dataset"
	"stratlab/internal/errors"
	"stratlab/internal/feature"
)

// scoreModel replays the "score" feature as its prediction
type scoreModel struct{}

func (scoreModel) Predict(features feature.Vector) float64 { return features["score"] }
func (scoreModel) Importances() map[string]float64         { return map[string]float64{"score": 1} }

func makeSegment(prices, scores []float64) []dataset.Sample {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]dataset.Sample, len(prices))
	for i := range prices {
		samples[i] = dataset.Sample{
			Index:     i,
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Price:     prices[i],
			Features:  feature.Vector{"score": scores[i]},
			Label:     dataset.LabelFavorable,
		}
	}
	return samples
}

func testSimConfig() Config {
	return Config{
		FeeRate:          0.001,
		SlippageRate:     0.0005,
		InitialEquity:    10000,
		PositionFraction: 1.0,
		LongThreshold:    0.3,
		FlatThreshold:    -0.3,
	}
}

func TestRunSingleRoundTripAccounting(t *testing.T) {
	// enter long at 100, hold, forced close at 110
	prices := []float64{100, 105, 110}
	scores := []float64{1, 1, 1}
	res, err := NewSimulator(testSimConfig()).Run("BTC/USDT", makeSegment(prices, scores), scoreModel{})
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]

	// notional 10000 at price 100: qty 100, open costs 15, close costs 16.5
	assert.InDelta(t, 100.0, trade.Quantity, 1e-9)
	assert.InDelta(t, 31.5, trade.Costs, 1e-9)
	assert.InDelta(t, 968.5, trade.PnL, 1e-9)
	assert.InDelta(t, 10968.5, res.FinalEquity, 1e-9)
	assert.Equal(t, Long, trade.Direction)
}

func TestRunMatchingSignalIsNoOp(t *testing.T) {
	// a persistent long signal holds one position, not one per bar
	prices := []float64{100, 101, 102, 103, 104}
	scores := []float64{1, 1, 1, 1, 1}
	res, err := NewSimulator(testSimConfig()).Run("BTC/USDT", makeSegment(prices, scores), scoreModel{})
	require.NoError(t, err)

	assert.Len(t, res.Trades, 1) // only the forced close at segment end
}

func TestRunFlipClosesThenOpens(t *testing.T) {
	cfg := testSimConfig()
	cfg.AllowShort = true
	prices := []float64{100, 102, 104, 103, 101}
	scores := []float64{1, 1, -1, -1, -1}
	res, err := NewSimulator(cfg).Run("BTC/USDT", makeSegment(prices, scores), scoreModel{})
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	assert.Equal(t, Long, res.Trades[0].Direction)
	assert.Equal(t, Short, res.Trades[1].Direction)
	// the long closed on the same bar the short opened
	assert.Equal(t, res.Trades[0].ExitTime, res.Trades[1].EntryTime)
	// short from 104 down to 101 is profitable after costs
	assert.Greater(t, res.Trades[1].PnL, 0.0)
}

func TestRunWeakSignalStaysFlat(t *testing.T) {
	prices := []float64{100, 101, 102}
	scores := []float64{0.1, -0.1, 0.2} // inside the hysteresis band
	res, err := NewSimulator(testSimConfig()).Run("BTC/USDT", makeSegment(prices, scores), scoreModel{})
	require.NoError(t, err)

	assert.Empty(t, res.Trades)
	for _, p := range res.EquityCurve {
		assert.Equal(t, 10000.0, p.Equity)
	}
}

func TestRunMarksEveryBar(t *testing.T) {
	prices := []float64{100, 101, 99, 102, 100, 98}
	scores := []float64{1, 1, 1, 1, 1, 1}
	res, err := NewSimulator(testSimConfig()).Run("BTC/USDT", makeSegment(prices, scores), scoreModel{})
	require.NoError(t, err)

	assert.Len(t, res.EquityCurve, len(prices))
	assert.Len(t, res.Returns, len(prices)-1)

	// equity moves with the mark, not only at close
	assert.NotEqual(t, res.EquityCurve[1].Equity, res.EquityCurve[2].Equity)
}

func TestRunChronologicalOrder(t *testing.T) {
	cfg := testSimConfig()
	cfg.AllowShort = true
	prices := []float64{100, 105, 103, 108, 104, 109, 102}
	scores := []float64{1, -1, 1, -1, 1, -1, 1}
	res, err := NewSimulator(cfg).Run("BTC/USDT", makeSegment(prices, scores), scoreModel{})
	require.NoError(t, err)

	for i := 1; i < len(res.Trades); i++ {
		assert.False(t, res.Trades[i].EntryTime.Before(res.Trades[i-1].ExitTime),
			"trade %d entered before trade %d exited", i, i-1)
	}
	for _, trade := range res.Trades {
		assert.False(t, trade.ExitTime.Before(trade.EntryTime))
	}
}

func TestRunDeterministicTradeIDs(t *testing.T) {
	prices := []float64{100, 105, 110}
	scores := []float64{1, 1, 1}
	sim := NewSimulator(testSimConfig())

	res1, err := sim.Run("BTC/USDT", makeSegment(prices, scores), scoreModel{})
	require.NoError(t, err)
	res2, err := sim.Run("BTC/USDT", makeSegment(prices, scores), scoreModel{})
	require.NoError(t, err)

	require.Equal(t, len(res1.Trades), len(res2.Trades))
	for i := range res1.Trades {
		assert.Equal(t, res1.Trades[i].ID, res2.Trades[i].ID)
	}
}

func TestRunEmptySegment(t *testing.T) {
	_, err := NewSimulator(testSimConfig()).Run("BTC/USDT", nil, scoreModel{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInsufficientSignal, errors.CodeOf(err))
}

func TestRunShortDisabledByDefault(t *testing.T) {
	prices := []float64{100, 99, 98}
	scores := []float64{-1, -1, -1}
	res, err := NewSimulator(testSimConfig()).Run("BTC/USDT", makeSegment(prices, scores), scoreModel{})
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
}
