package engine

import (
	"stratlab/internal/errors"
	"stratlab/internal/label"
	"stratlab/internal/market/kline"
)

// StrategyConfig is the strategy specification consumed by the engine.
// EntryLogic/ExitLogic are informational prose from the strategy designer;
// the mechanical knobs are the barrier and cost fields.
type StrategyConfig struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Features    []string `yaml:"features" json:"features"`
	EntryLogic  string   `yaml:"entry_logic" json:"entry_logic"`
	ExitLogic   string   `yaml:"exit_logic" json:"exit_logic"`

	Assets    []string       `yaml:"assets" json:"assets"`
	Timeframe kline.Interval `yaml:"timeframe" json:"timeframe"`
	// LookbackBars is how much history the data collaborator was asked
	// for; informational here, the supplied history is what gets used.
	LookbackBars int `yaml:"lookback_bars" json:"lookback_bars"`

	StopLossPct    float64 `yaml:"stop_loss_pct" json:"stop_loss_pct"`
	TakeProfitPct  float64 `yaml:"take_profit_pct" json:"take_profit_pct"`
	MaxHoldingBars int     `yaml:"max_holding_bars" json:"max_holding_bars"`

	FeeRate      float64 `yaml:"fee_rate" json:"fee_rate"`
	SlippageRate float64 `yaml:"slippage_rate" json:"slippage_rate"`
}

// BarrierParams returns the triple-barrier parameters
func (c *StrategyConfig) BarrierParams() label.Params {
	return label.Params{
		TakeProfitPct:  c.TakeProfitPct,
		StopLossPct:    c.StopLossPct,
		MaxHoldingBars: c.MaxHoldingBars,
	}
}

// Validate rejects strategy specs the pipeline cannot evaluate. Feature
// existence is checked later against the registry, where unknown names
// surface as UNKNOWN_FEATURE rather than a configuration error.
func (c *StrategyConfig) Validate() error {
	if c.Name == "" {
		return errors.New(errors.ErrCodeConfiguration, "strategy name is empty")
	}
	if len(c.Features) == 0 {
		return errors.New(errors.ErrCodeConfiguration,
			"strategy requests no features").WithStrategy(c.Name)
	}
	if len(c.Assets) == 0 {
		return errors.New(errors.ErrCodeConfiguration,
			"strategy lists no assets").WithStrategy(c.Name)
	}
	if c.FeeRate < 0 || c.SlippageRate < 0 {
		return errors.Newf(errors.ErrCodeConfiguration,
			"fee and slippage rates must be non-negative, got %v/%v",
			c.FeeRate, c.SlippageRate).WithStrategy(c.Name)
	}
	if err := c.BarrierParams().Validate(); err != nil {
		if evalErr := errors.GetEvalError(err); evalErr != nil {
			return evalErr.WithStrategy(c.Name)
		}
		return err
	}
	return nil
}
