package feature

import (
	"sync"

	"stratlab/internal/errors"
	"stratlab/internal/market/kline"
)

// Func computes one feature over a full price history. The returned slice
// is aligned one-to-one with the bars; warm-up indices hold NaN. The value
// at index i must be a pure function of bars at indices <= i.
type Func func(h *kline.History) []float64

// Definition is a registered feature
type Definition struct {
	Name        string
	Description string
	Compute     Func
}

// Descriptor is the catalogue entry exposed to the strategy designer.
// It never exposes computation internals.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry holds named feature definitions. It carries no market data and
// is safe to share read-only across concurrent evaluations once populated.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]Definition),
	}
}

// Register adds a feature definition. Registering a duplicate name is a
// configuration error.
func (r *Registry) Register(name, description string, fn Func) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[name]; exists {
		return errors.Newf(errors.ErrCodeConfiguration,
			"feature %q already registered", name)
	}
	if fn == nil {
		return errors.Newf(errors.ErrCodeConfiguration,
			"feature %q has nil compute function", name)
	}
	r.defs[name] = Definition{Name: name, Description: description, Compute: fn}
	r.order = append(r.order, name)
	return nil
}

// Get resolves a feature by name
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Available lists every registered feature in registration order
func (r *Registry) Available() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		def := r.defs[name]
		out = append(out, Descriptor{Name: def.Name, Description: def.Description})
	}
	return out
}

// Names lists registered feature names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
