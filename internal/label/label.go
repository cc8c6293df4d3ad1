package label

import (
	"stratlab/internal/dataset"
	"stratlab/internal/errors"
	"stratlab/internal/feature"
	"stratlab/internal/logger"
	"stratlab/internal/market/kline"
)

// Params are the three barriers: a take-profit return, a stop-loss return
// (both positive fractions) and a maximum holding horizon in bars.
type Params struct {
	TakeProfitPct  float64
	StopLossPct    float64
	MaxHoldingBars int
}

// Validate rejects barrier parameters the labeler cannot run with
func (p Params) Validate() error {
	if p.TakeProfitPct <= 0 {
		return errors.Newf(errors.ErrCodeConfiguration,
			"take profit must be positive, got %v", p.TakeProfitPct)
	}
	if p.StopLossPct <= 0 {
		return errors.Newf(errors.ErrCodeConfiguration,
			"stop loss must be positive, got %v", p.StopLossPct)
	}
	if p.MaxHoldingBars < 1 {
		return errors.Newf(errors.ErrCodeConfiguration,
			"max holding bars must be >= 1, got %d", p.MaxHoldingBars)
	}
	return nil
}

// Labeler assigns a triple-barrier outcome to every eligible bar
type Labeler struct {
	params     Params
	minSamples int
	log        logger.Logger
}

// NewLabeler creates a labeler. Params are validated here so a bad
// strategy spec fails at setup, not mid-pipeline.
func NewLabeler(params Params, minSamples int) (*Labeler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Labeler{
		params:     params,
		minSamples: minSamples,
		log:        logger.WithField("component", "labeler"),
	}, nil
}

// Label races the three exit conditions forward from each eligible entry.
// An entry at index i is eligible when its feature row is defined and a
// full horizon of bars exists after it; entries too close to the end of
// history are dropped, not forced.
//
// Within the horizon, the first bar whose low touches the stop-loss or
// whose high touches the take-profit decides the outcome. When one bar's
// range straddles both barriers the stop-loss takes precedence, a
// conservative assumption since the intrabar path is unknown. If neither
// barrier is touched the sign of the horizon-boundary return decides.
func (l *Labeler) Label(h *kline.History, m *feature.Matrix) ([]dataset.Sample, error) {
	bars := h.Bars
	horizon := l.params.MaxHoldingBars

	var samples []dataset.Sample
	for i := m.Warmup(); i < len(bars)-horizon; i++ {
		if !m.Defined(i) {
			continue
		}

		entry := bars[i].Close
		upper := entry * (1 + l.params.TakeProfitPct)
		lower := entry * (1 - l.params.StopLossPct)

		outcome := dataset.LabelNeutral
		realized := 0.0
		for j := i + 1; j <= i+horizon; j++ {
			slTouched := bars[j].Low <= lower
			tpTouched := bars[j].High >= upper
			if slTouched {
				// stop-loss precedence on a straddling bar
				outcome = dataset.LabelUnfavorable
				realized = -l.params.StopLossPct
				break
			}
			if tpTouched {
				outcome = dataset.LabelFavorable
				realized = l.params.TakeProfitPct
				break
			}
		}

		if outcome == dataset.LabelNeutral {
			// horizon elapsed untouched: sign of boundary return decides
			realized = (bars[i+horizon].Close - entry) / entry
			if realized > 0 {
				outcome = dataset.LabelFavorable
			} else {
				outcome = dataset.LabelUnfavorable
			}
		}

		samples = append(samples, dataset.Sample{
			Index:     i,
			Timestamp: bars[i].Timestamp,
			Price:     entry,
			Features:  m.Row(i),
			Label:     outcome,
			Return:    realized,
		})
	}

	if len(samples) < l.minSamples {
		return nil, errors.Newf(errors.ErrCodeInsufficientSignal,
			"only %d labelable samples, need %d", len(samples), l.minSamples).
			WithAsset(h.Symbol).
			WithContext("horizon", horizon).
			WithContext("warmup", m.Warmup())
	}
	if dataset.IsDegenerate(samples) {
		counts := dataset.LabelCounts(samples)
		return nil, errors.New(errors.ErrCodeInsufficientSignal,
			"label distribution is degenerate, single class only").
			WithAsset(h.Symbol).
			WithContext("counts", counts)
	}

	l.log.Debug("labeling complete",
		"asset", h.Symbol,
		"samples", len(samples),
		"counts", dataset.LabelCounts(samples),
	)
	return samples, nil
}
