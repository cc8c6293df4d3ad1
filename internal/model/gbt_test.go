package model

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratlab/internal/dataset"
	"stratlab/internal/errors"
	"stratlab/internal/feature"
)

func testConfig() GBTConfig {
	return GBTConfig{
		Seed:         42,
		NumTrees:     50,
		MaxDepth:     3,
		LearningRate: 0.1,
		Subsample:    0.8,
		MinLeaf:      3,
	}
}

// separableSamples builds a dataset where the label is decided entirely by
// the "signal" feature; "noise" carries no information
func separableSamples(n int, seed int64) []dataset.Sample {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]dataset.Sample, n)
	for i := range samples {
		signal := rng.Float64()*2 - 1
		label := dataset.LabelUnfavorable
		if signal > 0 {
			label = dataset.LabelFavorable
		}
		samples[i] = dataset.Sample{
			Index:     i,
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Price:     100,
			Features: feature.Vector{
				"signal": signal,
				"noise":  rng.Float64(),
			},
			Label: label,
		}
	}
	return samples
}

func TestFitLearnsSeparableData(t *testing.T) {
	trainer := NewGBTTrainer(testConfig())
	samples := separableSamples(300, 1)

	m, err := trainer.Fit(context.Background(), samples)
	require.NoError(t, err)

	correct := 0
	for _, s := range samples {
		score := m.Predict(s.Features)
		if (score > 0) == (s.Label == dataset.LabelFavorable) {
			correct++
		}
	}
	assert.Greater(t, float64(correct)/float64(len(samples)), 0.9,
		"ensemble should separate a trivially separable dataset")
}

func TestFitDeterministicForFixedSeed(t *testing.T) {
	samples := separableSamples(200, 2)

	m1, err := NewGBTTrainer(testConfig()).Fit(context.Background(), samples)
	require.NoError(t, err)
	m2, err := NewGBTTrainer(testConfig()).Fit(context.Background(), samples)
	require.NoError(t, err)

	for _, s := range samples {
		assert.Equal(t, m1.Predict(s.Features), m2.Predict(s.Features),
			"predictions must be bit-identical for a fixed seed")
	}
	assert.Equal(t, m1.Importances(), m2.Importances())
}

func TestImportancesSumToOne(t *testing.T) {
	trainer := NewGBTTrainer(testConfig())
	samples := separableSamples(300, 3)

	m, err := trainer.Fit(context.Background(), samples)
	require.NoError(t, err)

	imp := m.Importances()
	require.Len(t, imp, 2)

	total := 0.0
	for name, w := range imp {
		assert.GreaterOrEqual(t, w, 0.0, "importance of %s must be non-negative", name)
		total += w
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	// the informative feature dominates the noise feature
	assert.Greater(t, imp["signal"], imp["noise"])
}

func TestFitRejectsNaNFeatures(t *testing.T) {
	samples := separableSamples(100, 4)
	samples[10].Features["signal"] = math.NaN()

	_, err := NewGBTTrainer(testConfig()).Fit(context.Background(), samples)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTraining, errors.CodeOf(err))
}

func TestFitRejectsConstantTarget(t *testing.T) {
	samples := separableSamples(100, 5)
	for i := range samples {
		samples[i].Label = dataset.LabelFavorable
	}

	_, err := NewGBTTrainer(testConfig()).Fit(context.Background(), samples)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTraining, errors.CodeOf(err))
}

func TestFitRejectsEmptyInput(t *testing.T) {
	_, err := NewGBTTrainer(testConfig()).Fit(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTraining, errors.CodeOf(err))
}
