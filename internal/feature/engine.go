package feature

import (
	"math"
	"strings"

	"stratlab/internal/errors"
	"stratlab/internal/logger"
	"stratlab/internal/market/kline"
)

// Vector maps feature name to value for a single bar index
type Vector map[string]float64

// Matrix holds the computed features for one history, column per feature,
// aligned one-to-one with the input bars. Rows inside the warm-up window
// (or otherwise undefined, e.g. a zero-variance z-score window) are
// excluded from downstream stages, never zero-filled.
type Matrix struct {
	Names   []string
	Columns map[string][]float64
	defined []bool
	warmup  int
}

// Len returns the number of rows (bars)
func (m *Matrix) Len() int {
	return len(m.defined)
}

// Warmup returns the index of the first row where every feature is defined
func (m *Matrix) Warmup() int {
	return m.warmup
}

// Defined reports whether every feature has a value at index i
func (m *Matrix) Defined(i int) bool {
	return i >= 0 && i < len(m.defined) && m.defined[i]
}

// Row returns the feature vector at index i, or nil for undefined rows
func (m *Matrix) Row(i int) Vector {
	if !m.Defined(i) {
		return nil
	}
	v := make(Vector, len(m.Names))
	for _, name := range m.Names {
		v[name] = m.Columns[name][i]
	}
	return v
}

// Engine resolves requested features against a registry and computes them
// causally over a price history
type Engine struct {
	registry *Registry
	log      logger.Logger
}

// NewEngine creates a feature engine backed by the given registry
func NewEngine(registry *Registry) *Engine {
	return &Engine{
		registry: registry,
		log:      logger.WithField("component", "feature_engine"),
	}
}

// Compute computes the requested features over the history. Unknown names
// fail with an UNKNOWN_FEATURE error; an empty request is a configuration
// error. Computing the same features over the same history twice yields
// bit-identical output.
func (e *Engine) Compute(h *kline.History, names []string) (*Matrix, error) {
	if len(names) == 0 {
		return nil, errors.New(errors.ErrCodeConfiguration,
			"strategy requests no features").WithAsset(h.Symbol)
	}

	seen := make(map[string]bool, len(names))
	m := &Matrix{
		Names:   make([]string, 0, len(names)),
		Columns: make(map[string][]float64, len(names)),
		defined: make([]bool, h.Len()),
	}

	for _, name := range names {
		if seen[name] {
			return nil, errors.Newf(errors.ErrCodeConfiguration,
				"feature %q requested twice", name).WithAsset(h.Symbol)
		}
		seen[name] = true

		def, ok := e.registry.Get(name)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeUnknownFeature,
				"unknown feature %q", name).
				WithAsset(h.Symbol).
				WithContext("available", strings.Join(e.registry.Names(), ","))
		}
		m.Names = append(m.Names, name)
		m.Columns[name] = def.Compute(h)
	}

	for i := 0; i < h.Len(); i++ {
		ok := true
		for _, name := range m.Names {
			if math.IsNaN(m.Columns[name][i]) || math.IsInf(m.Columns[name][i], 0) {
				ok = false
				break
			}
		}
		m.defined[i] = ok
	}

	m.warmup = h.Len()
	for i := 0; i < h.Len(); i++ {
		if m.defined[i] {
			m.warmup = i
			break
		}
	}
	if m.warmup == h.Len() {
		return nil, errors.Newf(errors.ErrCodeInsufficientSignal,
			"history of %d bars is shorter than the feature warm-up", h.Len()).
			WithAsset(h.Symbol)
	}

	e.log.Debug("features computed",
		"asset", h.Symbol,
		"features", len(m.Names),
		"bars", h.Len(),
		"warmup", m.warmup,
	)
	return m, nil
}
