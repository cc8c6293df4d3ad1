package model

import (
	"context"

	"stratlab/internal/dataset"
	"stratlab/internal/feature"
)

// Model is an opaque fitted predictor. It is owned by exactly one trainer
// invocation and never reused across strategies.
type Model interface {
	// Predict returns a directional score for one feature vector. Positive
	// scores lean favorable, negative lean unfavorable.
	Predict(features feature.Vector) float64

	// Importances returns non-negative per-feature weights summing to 1.
	// A feature the fitted trees never split on has importance 0.
	Importances() map[string]float64
}

// Trainer fits a predictor on the train segment. The concrete algorithm
// sits behind this boundary so it is swappable without touching the
// labeling, splitting or simulation logic.
type Trainer interface {
	Fit(ctx context.Context, samples []dataset.Sample) (Model, error)
}
