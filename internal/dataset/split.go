package dataset

import (
	"stratlab/internal/errors"
)

// Split is a chronological train/test partition. Both segments are
// contiguous views over the same ordered sample sequence and the train
// segment strictly precedes the test segment in time.
type Split struct {
	Train []Sample
	Test  []Sample
}

// Splitter cuts a labeled dataset forward in time. There is no shuffling
// and no k-fold: shuffling would leak future information into training
// through adjacent-bar feature correlation.
type Splitter struct {
	TrainFraction  float64
	MinSegmentSize int
}

// NewSplitter creates a splitter with the given chronological cut
func NewSplitter(trainFraction float64, minSegmentSize int) *Splitter {
	return &Splitter{
		TrainFraction:  trainFraction,
		MinSegmentSize: minSegmentSize,
	}
}

// Split partitions the samples at len*trainFraction. Fails if either
// segment would be smaller than the minimum viable size.
func (s *Splitter) Split(samples []Sample) (*Split, error) {
	if s.TrainFraction <= 0 || s.TrainFraction >= 1 {
		return nil, errors.Newf(errors.ErrCodeConfiguration,
			"train fraction must be in (0,1), got %v", s.TrainFraction)
	}

	cut := int(float64(len(samples)) * s.TrainFraction)
	train := samples[:cut]
	test := samples[cut:]

	if len(train) < s.MinSegmentSize || len(test) < s.MinSegmentSize {
		return nil, errors.Newf(errors.ErrCodeInsufficientSignal,
			"split of %d samples yields segments of %d/%d, below minimum %d",
			len(samples), len(train), len(test), s.MinSegmentSize).
			WithContext("train_fraction", s.TrainFraction)
	}

	return &Split{Train: train, Test: test}, nil
}
