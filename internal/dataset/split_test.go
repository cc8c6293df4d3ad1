package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratlab/internal/errors"
)

func makeSamples(n int) []Sample {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]Sample, n)
	for i := range samples {
		label := LabelFavorable
		if i%3 == 0 {
			label = LabelUnfavorable
		}
		samples[i] = Sample{
			Index:     i,
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Price:     100 + float64(i),
			Label:     label,
		}
	}
	return samples
}

func TestSplitChronological(t *testing.T) {
	samples := makeSamples(100)
	split, err := NewSplitter(0.7, 20).Split(samples)
	require.NoError(t, err)

	assert.Len(t, split.Train, 70)
	assert.Len(t, split.Test, 30)

	// every train timestamp strictly precedes every test timestamp
	lastTrain := split.Train[len(split.Train)-1].Timestamp
	for _, s := range split.Test {
		assert.True(t, lastTrain.Before(s.Timestamp),
			"train sample at %v not before test sample at %v", lastTrain, s.Timestamp)
	}
}

func TestSplitNoOverlap(t *testing.T) {
	samples := makeSamples(100)
	split, err := NewSplitter(0.7, 20).Split(samples)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, s := range split.Train {
		seen[s.Index] = true
	}
	for _, s := range split.Test {
		assert.False(t, seen[s.Index], "index %d appears in both segments", s.Index)
	}
}

func TestSplitTooSmall(t *testing.T) {
	samples := makeSamples(40)
	_, err := NewSplitter(0.7, 20).Split(samples)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInsufficientSignal, errors.CodeOf(err))
}

func TestSplitBadFraction(t *testing.T) {
	samples := makeSamples(100)
	for _, frac := range []float64{0, 1, -0.5, 1.5} {
		_, err := NewSplitter(frac, 5).Split(samples)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConfiguration, errors.CodeOf(err))
	}
}

func TestIsDegenerate(t *testing.T) {
	mixed := makeSamples(10)
	assert.False(t, IsDegenerate(mixed))

	single := make([]Sample, 10)
	for i := range single {
		single[i] = Sample{Index: i, Label: LabelFavorable}
	}
	assert.True(t, IsDegenerate(single))
}
