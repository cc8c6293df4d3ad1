package model

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"stratlab/internal/dataset"
	"stratlab/internal/errors"
	"stratlab/internal/feature"
	"stratlab/internal/logger"
)

// GBTConfig configures the gradient-boosted tree trainer
type GBTConfig struct {
	Seed         int64
	NumTrees     int
	MaxDepth     int
	LearningRate float64
	Subsample    float64
	MinLeaf      int
}

// GBTTrainer fits least-squares gradient-boosted regression trees on the
// +1/-1 label target. Fitting is fully deterministic for a fixed seed:
// row subsampling uses a seeded generator and split search breaks value
// ties by row order.
type GBTTrainer struct {
	config GBTConfig
	log    logger.Logger
}

// NewGBTTrainer creates a trainer from config
func NewGBTTrainer(config GBTConfig) *GBTTrainer {
	if config.MinLeaf < 1 {
		config.MinLeaf = 1
	}
	return &GBTTrainer{
		config: config,
		log:    logger.WithField("component", "gbt_trainer"),
	}
}

// treeNode is a node of a fitted regression tree
type treeNode struct {
	featureIdx int
	threshold  float64
	left       *treeNode
	right      *treeNode
	value      float64
	leaf       bool
}

// gbtModel is the fitted ensemble
type gbtModel struct {
	names       []string
	bias        float64
	shrinkage   float64
	trees       []*treeNode
	importances map[string]float64
}

// Fit trains the ensemble. Numerical failure (NaN/Inf features, constant
// target) surfaces as a TRAINING_ERROR, never a silent fallback.
func (t *GBTTrainer) Fit(ctx context.Context, samples []dataset.Sample) (Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTraining, "training aborted")
	}
	if len(samples) == 0 {
		return nil, errors.New(errors.ErrCodeTraining, "no training samples")
	}

	names := featureNames(samples[0].Features)
	if len(names) == 0 {
		return nil, errors.New(errors.ErrCodeTraining, "samples carry no features")
	}

	// materialize the design matrix once, row-major
	rows := make([][]float64, len(samples))
	target := make([]float64, len(samples))
	for i, s := range samples {
		row := make([]float64, len(names))
		for j, name := range names {
			v, ok := s.Features[name]
			if !ok {
				return nil, errors.Newf(errors.ErrCodeTraining,
					"sample %d missing feature %q", i, name)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Newf(errors.ErrCodeTraining,
					"non-finite value for feature %q at sample %d", name, i)
			}
			row[j] = v
		}
		rows[i] = row
		target[i] = float64(s.Label)
	}

	if constant(target) {
		return nil, errors.New(errors.ErrCodeTraining,
			"constant training target, nothing to fit")
	}

	bias := mean(target)
	pred := make([]float64, len(target))
	for i := range pred {
		pred[i] = bias
	}

	rng := rand.New(rand.NewSource(t.config.Seed))
	gains := make([]float64, len(names))
	trees := make([]*treeNode, 0, t.config.NumTrees)

	sampleSize := int(float64(len(rows)) * t.config.Subsample)
	if sampleSize < t.config.MinLeaf*2 {
		sampleSize = len(rows)
	}

	residual := make([]float64, len(target))
	for round := 0; round < t.config.NumTrees; round++ {
		for i := range target {
			residual[i] = target[i] - pred[i]
		}

		idx := subsampleIndices(rng, len(rows), sampleSize)
		tree := t.buildTree(rows, residual, idx, 0, gains)
		trees = append(trees, tree)

		for i := range rows {
			pred[i] += t.config.LearningRate * evalTree(tree, rows[i])
		}
	}

	m := &gbtModel{
		names:       names,
		bias:        bias,
		shrinkage:   t.config.LearningRate,
		trees:       trees,
		importances: normalizeGains(names, gains),
	}

	t.log.Debug("model fitted",
		"samples", len(samples),
		"features", len(names),
		"trees", len(trees),
	)
	return m, nil
}

// buildTree grows one regression tree on the residuals over the given rows
func (t *GBTTrainer) buildTree(rows [][]float64, residual []float64, idx []int, depth int, gains []float64) *treeNode {
	if depth >= t.config.MaxDepth || len(idx) < 2*t.config.MinLeaf {
		return &treeNode{leaf: true, value: meanAt(residual, idx)}
	}

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	parentSSE := sseAt(residual, idx)

	for j := range rows[0] {
		threshold, gain, ok := bestSplit(rows, residual, idx, j, t.config.MinLeaf, parentSSE)
		if ok && gain > bestGain {
			bestFeature, bestThreshold, bestGain = j, threshold, gain
		}
	}

	if bestFeature < 0 || bestGain <= 0 {
		return &treeNode{leaf: true, value: meanAt(residual, idx)}
	}
	gains[bestFeature] += bestGain

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if rows[i][bestFeature] <= bestThreshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	return &treeNode{
		featureIdx: bestFeature,
		threshold:  bestThreshold,
		left:       t.buildTree(rows, residual, leftIdx, depth+1, gains),
		right:      t.buildTree(rows, residual, rightIdx, depth+1, gains),
	}
}

// bestSplit finds the SSE-minimizing threshold for one feature using
// prefix sums over the value-sorted rows
func bestSplit(rows [][]float64, residual []float64, idx []int, featureIdx, minLeaf int, parentSSE float64) (float64, float64, bool) {
	order := make([]int, len(idx))
	copy(order, idx)
	sort.SliceStable(order, func(a, b int) bool {
		va, vb := rows[order[a]][featureIdx], rows[order[b]][featureIdx]
		if va == vb {
			return order[a] < order[b]
		}
		return va < vb
	})

	n := len(order)
	total, totalSq := 0.0, 0.0
	for _, i := range order {
		total += residual[i]
		totalSq += residual[i] * residual[i]
	}

	bestGain, bestThreshold := 0.0, 0.0
	found := false
	leftSum, leftSq := 0.0, 0.0
	for k := 0; k < n-1; k++ {
		r := residual[order[k]]
		leftSum += r
		leftSq += r * r

		v, next := rows[order[k]][featureIdx], rows[order[k+1]][featureIdx]
		if v == next {
			continue // cannot split between equal values
		}
		leftN, rightN := k+1, n-k-1
		if leftN < minLeaf || rightN < minLeaf {
			continue
		}

		rightSum := total - leftSum
		rightSq := totalSq - leftSq
		leftSSE := leftSq - leftSum*leftSum/float64(leftN)
		rightSSE := rightSq - rightSum*rightSum/float64(rightN)
		gain := parentSSE - leftSSE - rightSSE
		if gain > bestGain {
			bestGain = gain
			bestThreshold = (v + next) / 2
			found = true
		}
	}
	return bestThreshold, bestGain, found
}

// Predict evaluates the ensemble on one feature vector
func (m *gbtModel) Predict(features feature.Vector) float64 {
	row := make([]float64, len(m.names))
	for j, name := range m.names {
		row[j] = features[name]
	}
	score := m.bias
	for _, tree := range m.trees {
		score += m.shrinkage * evalTree(tree, row)
	}
	return score
}

// Importances returns the normalized split-gain weights
func (m *gbtModel) Importances() map[string]float64 {
	out := make(map[string]float64, len(m.importances))
	for k, v := range m.importances {
		out[k] = v
	}
	return out
}

func evalTree(node *treeNode, row []float64) float64 {
	for !node.leaf {
		if row[node.featureIdx] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

// subsampleIndices draws size distinct row indices in ascending order
func subsampleIndices(rng *rand.Rand, n, size int) []int {
	if size >= n {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	perm := rng.Perm(n)[:size]
	sort.Ints(perm)
	return perm
}

// normalizeGains converts accumulated split gains into weights summing
// to 1. A fully constant ensemble (no split anywhere) falls back to
// uniform weights so the contract on the sum still holds.
func normalizeGains(names []string, gains []float64) map[string]float64 {
	total := 0.0
	for _, g := range gains {
		total += g
	}
	out := make(map[string]float64, len(names))
	if total <= 0 {
		for _, name := range names {
			out[name] = 1.0 / float64(len(names))
		}
		return out
	}
	for j, name := range names {
		out[name] = gains[j] / total
	}
	return out
}

func featureNames(v feature.Vector) []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanAt(values []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += values[i]
	}
	return sum / float64(len(idx))
}

func sseAt(values []float64, idx []int) float64 {
	m := meanAt(values, idx)
	sse := 0.0
	for _, i := range idx {
		d := values[i] - m
		sse += d * d
	}
	return sse
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
