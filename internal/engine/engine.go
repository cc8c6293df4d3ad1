package engine

import (
	"context"
	"time"

	"stratlab/internal/config"
	"stratlab/internal/dataset"
	"stratlab/internal/diag"
	"stratlab/internal/errors"
	"stratlab/internal/feature"
	"stratlab/internal/label"
	"stratlab/internal/logger"
	"stratlab/internal/market/kline"
	"stratlab/internal/model"
	"stratlab/internal/monitoring"
	"stratlab/internal/sim"
)

// State is the per-evaluation pipeline state. Transitions are strictly
// linear; any stage failure short-circuits to StateFailed and partial
// results are discarded, never exposed.
type State string

const (
	StateValidated        State = "validated"
	StateFeaturesComputed State = "features_computed"
	StateLabeled          State = "labeled"
	StateSplit            State = "split"
	StateTrained          State = "trained"
	StateSimulated        State = "simulated"
	StateReported         State = "reported"
	StateFailed           State = "failed"
)

// Engine orchestrates one evaluation: strategy spec plus validated price
// history in, structured report out. It holds only read-only state (config,
// feature registry, trainer, metrics) and is safe to invoke concurrently
// with independent inputs.
type Engine struct {
	cfg      *config.Config
	registry *feature.Registry
	features *feature.Engine
	trainer  model.Trainer
	metrics  *monitoring.Metrics
	log      logger.Logger
}

// New creates an evaluation engine. A nil trainer selects the built-in
// gradient-boosted tree trainer configured from cfg.Model; a nil metrics
// disables instrumentation.
func New(cfg *config.Config, registry *feature.Registry, trainer model.Trainer, metrics *monitoring.Metrics) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfiguration, "invalid engine config")
	}
	if trainer == nil {
		trainer = model.NewGBTTrainer(model.GBTConfig{
			Seed:         cfg.Model.Seed,
			NumTrees:     cfg.Model.NumTrees,
			MaxDepth:     cfg.Model.MaxDepth,
			LearningRate: cfg.Model.LearningRate,
			Subsample:    cfg.Model.Subsample,
			MinLeaf:      cfg.Model.MinLeaf,
		})
	}
	return &Engine{
		cfg:      cfg,
		registry: registry,
		features: feature.NewEngine(registry),
		trainer:  trainer,
		metrics:  metrics,
		log:      logger.WithField("component", "evaluation_engine"),
	}, nil
}

// Catalogue returns the read-only feature listing for the strategy
// designer. Names and descriptions only, never computation internals.
func (e *Engine) Catalogue() []feature.Descriptor {
	return e.registry.Available()
}

// Evaluate runs the full pipeline for one strategy over the supplied
// per-asset histories. Every asset the strategy names must have a history
// snapshot. The call either returns exactly one report or a structured
// error; a weak result is a report, not an error.
func (e *Engine) Evaluate(ctx context.Context, strategy *StrategyConfig, histories map[string]*kline.History) (*Report, error) {
	started := time.Now()
	report, err := e.evaluate(ctx, strategy, histories)

	if e.metrics != nil {
		if err != nil {
			evalErr := errors.GetEvalError(err)
			stage, code := "unknown", string(errors.ErrCodeInternal)
			if evalErr != nil {
				stage, code = string(evalErr.Stage), string(evalErr.Code)
			}
			e.metrics.RecordFailure(strategy.Name, stage, code, time.Since(started))
		} else {
			e.metrics.RecordSuccess(strategy.Name, time.Since(started))
		}
	}
	return report, err
}

func (e *Engine) evaluate(ctx context.Context, strategy *StrategyConfig, histories map[string]*kline.History) (*Report, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}

	log := e.log.WithField("strategy", strategy.Name)
	results := make([]AssetResult, 0, len(strategy.Assets))
	for _, asset := range strategy.Assets {
		history, ok := histories[asset]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeDataValidation,
				"no history supplied for asset %q", asset).
				WithStage(errors.StageValidate).
				WithStrategy(strategy.Name).
				WithAsset(asset)
		}
		result, err := e.evaluateAsset(ctx, strategy, history)
		if err != nil {
			if evalErr := errors.GetEvalError(err); evalErr != nil {
				evalErr.WithStrategy(strategy.Name)
			}
			log.Warn("evaluation failed",
				"asset", asset,
				"error", err.Error(),
			)
			return nil, err
		}
		results = append(results, *result)
	}

	report := &Report{
		ID:          reportID(strategy, e.cfg.Model.Seed),
		Strategy:    strategy.Name,
		Description: strategy.Description,
		Features:    strategy.Features,
		Assets:      results,
		Aggregate:   aggregateResults(results),
	}

	log.Info("evaluation complete",
		"assets", len(results),
		"sharpe", report.Aggregate.Sharpe,
		"verdict", report.Aggregate.Verdict,
	)
	return report, nil
}

// evaluateAsset walks one asset through the linear stage sequence. Each
// stage consumes only its predecessor's fully materialized output, which
// is what makes causal correctness auditable.
func (e *Engine) evaluateAsset(ctx context.Context, strategy *StrategyConfig, history *kline.History) (*AssetResult, error) {
	asset := history.Symbol
	state := StateFailed
	log := e.log.WithFields(map[string]interface{}{
		"strategy": strategy.Name,
		"asset":    asset,
	})

	fail := func(err error, stage errors.Stage) error {
		if evalErr := errors.GetEvalError(err); evalErr != nil {
			if evalErr.Stage == "" {
				evalErr.WithStage(stage)
			}
			evalErr.WithAsset(asset)
			return evalErr
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "stage failed").
			WithStage(stage).WithAsset(asset)
	}

	// Validated
	if err := history.Validate(e.cfg.Data.MaxGapIntervals); err != nil {
		return nil, fail(err, errors.StageValidate)
	}
	if history.Len() < e.cfg.Data.MinBars {
		return nil, fail(errors.Newf(errors.ErrCodeDataValidation,
			"history of %d bars is below the configured minimum %d",
			history.Len(), e.cfg.Data.MinBars), errors.StageValidate)
	}
	state = StateValidated

	// FeaturesComputed
	matrix, err := e.features.Compute(history, strategy.Features)
	if err != nil {
		return nil, fail(err, errors.StageFeatures)
	}
	state = StateFeaturesComputed

	// Labeled
	labeler, err := label.NewLabeler(strategy.BarrierParams(), e.cfg.Labeler.MinSamples)
	if err != nil {
		return nil, fail(err, errors.StageLabel)
	}
	samples, err := labeler.Label(history, matrix)
	if err != nil {
		return nil, fail(err, errors.StageLabel)
	}
	if e.metrics != nil {
		e.metrics.RecordSamples(len(samples))
	}
	state = StateLabeled

	// Split
	split, err := dataset.NewSplitter(e.cfg.Split.TrainFraction, e.cfg.Split.MinSegmentSize).Split(samples)
	if err != nil {
		return nil, fail(err, errors.StageSplit)
	}
	state = StateSplit

	// Trained
	fitted, err := e.trainer.Fit(ctx, split.Train)
	if err != nil {
		return nil, fail(err, errors.StageTrain)
	}
	state = StateTrained

	// Simulated: the test segment drives the verdict; the train segment is
	// replayed through the same simulator for the overfitting comparison
	simulator := sim.NewSimulator(sim.Config{
		FeeRate:          strategy.FeeRate,
		SlippageRate:     strategy.SlippageRate,
		InitialEquity:    e.cfg.Sim.InitialEquity,
		PositionFraction: e.cfg.Sim.PositionFraction,
		LongThreshold:    e.cfg.Sim.LongThreshold,
		FlatThreshold:    e.cfg.Sim.FlatThreshold,
		AllowShort:       e.cfg.Sim.AllowShort,
	})
	testRun, err := simulator.Run(asset, split.Test, fitted)
	if err != nil {
		return nil, fail(err, errors.StageSimulate)
	}
	trainRun, err := simulator.Run(asset, split.Train, fitted)
	if err != nil {
		return nil, fail(err, errors.StageSimulate)
	}
	if e.metrics != nil {
		e.metrics.RecordTrades(len(testRun.Trades))
	}
	state = StateSimulated

	// Reported
	barsPerYear := e.cfg.Diag.BarsPerYear
	if strategy.Timeframe != "" {
		barsPerYear = kline.BarsPerYear(strategy.Timeframe)
	}
	trainStats := diag.Evaluate(trainRun, barsPerYear)
	testStats := diag.Evaluate(testRun, barsPerYear)
	overfit := diag.OverfitScore(trainStats.Sharpe, testStats.Sharpe, e.cfg.Diag.Epsilon)
	verdict := diag.Classify(testStats.Sharpe)

	state = StateReported
	log.Debug("asset evaluated",
		"state", string(state),
		"train_samples", len(split.Train),
		"test_samples", len(split.Test),
		"test_sharpe", testStats.Sharpe,
		"overfit", overfit,
	)

	return &AssetResult{
		Asset:           asset,
		TrainSamples:    len(split.Train),
		TestSamples:     len(split.Test),
		TrainStats:      trainStats,
		TestStats:       testStats,
		OverfitScore:    overfit,
		OverfitSeverity: diag.ClassifyOverfit(overfit),
		Verdict:         verdict,
		VerdictReason:   diag.Reason(verdict, testStats.Sharpe, testStats.MaxDrawdown, overfit),
		Importances:     fitted.Importances(),
		Trades:          testRun.Trades,
	}, nil
}
