package dataset

import (
	"time"

	"stratlab/internal/feature"
)

// Label is the triple-barrier outcome assigned to a sample
type Label int

const (
	// LabelUnfavorable means the stop-loss barrier was hit first, or the
	// horizon elapsed with a non-positive return
	LabelUnfavorable Label = -1
	// LabelNeutral is reserved for samples that resolve exactly flat
	LabelNeutral Label = 0
	// LabelFavorable means the take-profit barrier was hit first, or the
	// horizon elapsed with a positive return
	LabelFavorable Label = 1
)

// String returns the label name
func (l Label) String() string {
	switch l {
	case LabelFavorable:
		return "favorable"
	case LabelUnfavorable:
		return "unfavorable"
	default:
		return "neutral"
	}
}

// Sample is one labeled observation: a feature vector attached to a bar,
// the triple-barrier outcome, and the realized return at label resolution.
// Samples are immutable once created.
type Sample struct {
	// Index is the bar index in the source history
	Index     int
	Timestamp time.Time
	// Price is the entry close at Index
	Price    float64
	Features feature.Vector
	Label    Label
	// Return is whichever return triggered the label: the barrier-crossing
	// return, or the horizon-boundary return
	Return float64
}

// LabelCounts tallies samples per label
func LabelCounts(samples []Sample) map[Label]int {
	counts := make(map[Label]int)
	for _, s := range samples {
		counts[s.Label]++
	}
	return counts
}

// IsDegenerate reports whether the samples carry a single class only,
// which no classifier can learn anything from
func IsDegenerate(samples []Sample) bool {
	return len(LabelCounts(samples)) < 2
}
